package main

import (
	"fmt"

	cathttp "github.com/fwojciec/catleg/http"
)

// Run executes the serve command. It blocks until the context is canceled.
func (c *ServeCmd) Run(deps *Dependencies) error {
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = deps.ServeTimeout
	}
	if timeout <= 0 {
		timeout = cathttp.DefaultTimeout
	}

	srv := cathttp.NewServer(deps.Skeletons,
		cathttp.WithTimeout(timeout),
		cathttp.WithLogger(deps.Logger),
	)
	fmt.Fprintf(deps.Stderr, "Serving skeletons on http://%s\n", c.Addr)
	return srv.ListenAndServe(deps.Ctx, c.Addr)
}
