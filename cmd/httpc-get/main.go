package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"golang.org/x/sync/errgroup"

	"dqx0.com/go/httpc/httpc"
)

func main() {
	timeout := flag.Int("timeout", 5000, "per-request timeout in milliseconds")
	certs := flag.String("certs", "", "path to extra root certificates (.crt/.pem file or directory)")
	flag.Parse()

	urls := flag.Args()
	if len(urls) == 0 {
		fmt.Fprintln(os.Stderr, "usage: httpc-get [flags] url [url...]")
		os.Exit(2)
	}

	cfg := httpc.NewConfig()
	if *certs != "" {
		var err error
		cfg, err = httpc.CertsFromPath(*certs)
		if err != nil {
			log.Fatal(err)
		}
	}

	var g errgroup.Group
	for _, url := range urls {
		url := url
		g.Go(func() error {
			status, hdrs, body, err := httpc.NewSyncCall().
				WithEngine(httpc.New(cfg)).
				TimeoutMs(*timeout).
				Get(url)
			if err != nil {
				return fmt.Errorf("%s: %w", url, err)
			}
			fmt.Printf("%s -> %d\n", url, status)
			for _, h := range hdrs {
				fmt.Println("  " + h)
			}
			fmt.Printf("%s\n", body)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		log.Fatal(err)
	}
}
