package api

import (
	"context"
	"net/http"

	"github.com/filecoin-project/go-jsonrpc"
)

// NewGatewayClient dials the daemon json-rpc endpoint at url.
func NewGatewayClient(ctx context.Context, url, token string) (IGateway, jsonrpc.ClientCloser, error) {
	header := http.Header{}
	if token != "" {
		header.Add("Authorization", "Bearer "+token)
	}

	var res GatewayStruct
	closer, err := jsonrpc.NewMergeClient(ctx, url, Namespace, []interface{}{&res.Internal}, header)
	if err != nil {
		return nil, nil, err
	}
	return &res, closer, nil
}
