// grpc-form builds gRPC request messages from their schema. Schemas come from
// a server with reflection enabled (--reflect) or from FileDescriptorSet files
// (--descriptor-set). Values are filled in with path=value assignments, an
// --input document, or interactively with the edit command.
//
//	grpc-form --reflect localhost:50051 --plaintext services
//	grpc-form --descriptor-set shop.binpb set --format yaml \
//	    shop.v1.Orders/PlaceOrder customer=ada 'items[0].sku=A-1'
//	grpc-form --descriptor-set shop.binpb edit shop.v1.Orders/PlaceOrder
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	grpcclient "github.com/bhagwati-web/grpc-client"
	"github.com/bhagwati-web/grpc-client/contrib/bundle"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := grpcclient.RootCommand("grpc-form", bundle.RootOptions()...)
	if err := app.Run(ctx, os.Args); err != nil {
		stop()
		log.Fatal(err)
	}
}
