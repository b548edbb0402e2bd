// Package testutil provides an in-memory warehouse.Client for tests.
//
//	wh := testutil.NewFake().Fail("COPY", 2, errors.ExecutionFailed("redshift", io.EOF))
//	err := stage.Run(ctx, wh, stage.RunOptions{})
package testutil
