package platform

import (
	"github.com/aretw0/budgetry/pkg/core"
)

// New opens the repository described by uri and opts and wraps it in a Service.
//
//	svc, err := platform.New("./vault", platform.WithAdapter("sqlite"))
func New(uri string, opts ...Option) (*core.Service, error) {
	repo, err := Init(uri, opts...)
	if err != nil {
		return nil, err
	}

	o := buildOptions(opts)
	return core.NewService(repo,
		core.WithServiceLogger(o.logger),
		core.WithEventBuffer(o.eventBuffer),
	), nil
}
