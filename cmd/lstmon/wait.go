package main

import "context"

func waitDone(ctx context.Context) error {
	<-ctx.Done()
	return ctx.Err()
}
