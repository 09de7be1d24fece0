package weavetest

import "github.com/iov-one/escrowd"

func escrowdResult(log string) escrowd.DeliverResult {
	return escrowd.DeliverResult{Log: log}
}
