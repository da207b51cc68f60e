package workers

import (
	"context"

	"showbot/admin"
)

// AdminWorker serves the admin HTTP surface and tears it down on
// cancellation.
type AdminWorker struct {
	server *admin.Server
	addr   string
}

func NewAdminWorker(server *admin.Server, addr string) *AdminWorker {
	return &AdminWorker{server: server, addr: addr}
}

func (w *AdminWorker) Name() string { return "admin" }

func (w *AdminWorker) Run(ctx context.Context) error {
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = w.server.Close()
		case <-done:
		}
	}()
	return w.server.Listen(w.addr)
}
