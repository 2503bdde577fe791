package main

import (
	"context"
	"fmt"

	"github.com/trezcool/masomo-web/core/backend"
	"github.com/trezcool/masomo-web/core/session"
)

// ping calls the backend root unauthenticated. Any HTTP answer, even a failing one, means it is reachable.
func (cli *commandLine) ping() error {
	_, err := cli.client.Fetch(context.Background(), session.Session{}, "/", backend.Options{})
	if err != nil {
		if bErr, ok := backend.AsError(err); !ok || bErr.Kind != backend.KindHTTP {
			return err
		}
	}
	fmt.Fprintf(cli.out, "backend reachable at %s\n", cli.client.BaseURL())
	return nil
}
