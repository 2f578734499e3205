package client_test

import (
	"context"
	"fmt"
	"net/http"

	"github.com/jonwraymond/queryops/client"
	"github.com/jonwraymond/queryops/fetch"
	"github.com/jonwraymond/queryops/request"
	"github.com/jonwraymond/queryops/store"
)

func Example() {
	// A real program passes fetch.NewHTTPFetcher(nil); tests and examples
	// can stub the transport with a FetcherFunc.
	fetcher := fetch.FetcherFunc(func(ctx context.Context, req fetch.Request) (*fetch.RawResponse, error) {
		return &fetch.RawResponse{
			Status: http.StatusOK,
			Body:   []byte(`{"id":"1","name":"ada"}`),
		}, nil
	})

	c, err := client.New(fetcher, client.WithBaseURL("https://api.example.com"))
	if err != nil {
		fmt.Println("new:", err)
		return
	}

	user, err := c.Query(context.Background(), request.Descriptor{Path: "/users/1"}, "example")
	if err != nil {
		fmt.Println("query:", err)
		return
	}
	fmt.Println(user.(map[string]any)["name"])

	// The second query is served from cache under the default cache-first
	// policy; the network is not consulted again.
	again, _ := c.Query(context.Background(), request.Descriptor{Path: "/users/1"}, "example")
	fmt.Println(again.(map[string]any)["name"])

	// Output:
	// ada
	// ada
}

func ExampleClient_Mutate() {
	fetcher := fetch.FetcherFunc(func(ctx context.Context, req fetch.Request) (*fetch.RawResponse, error) {
		return &fetch.RawResponse{
			Status: http.StatusCreated,
			Body:   []byte(`{"id":"42","title":"ship it"}`),
		}, nil
	})
	c, _ := client.New(fetcher)

	toCache := func(shared, data any, d request.Descriptor) any {
		list, _ := shared.([]any)
		return append(append([]any{}, list...), data)
	}
	created, err := c.Mutate(context.Background(), request.Descriptor{
		Path:    "/todos",
		Body:    map[string]any{"title": "ship it"},
		ToCache: toCache,
	}, "example")
	if err != nil {
		fmt.Println("mutate:", err)
		return
	}
	fmt.Println(created.(map[string]any)["id"])
	fmt.Println(len(c.Store().Shared().([]any)))

	// Output:
	// 42
	// 1
}

func ExampleClient_Extract() {
	fetcher := fetch.FetcherFunc(func(ctx context.Context, req fetch.Request) (*fetch.RawResponse, error) {
		return &fetch.RawResponse{Status: http.StatusOK, Body: []byte(`{"field":"x"}`)}, nil
	})

	// Server side: render-time client resolves queries, then hands its
	// state to the page.
	server, _ := client.New(fetcher, client.WithServerMode())
	if _, err := server.Query(context.Background(), request.Descriptor{Path: "/data/1"}, "render"); err != nil {
		fmt.Println("query:", err)
		return
	}
	payload, _ := server.ExtractJSON()

	// Client side: hydrate and serve the first render from the carried
	// state without refetching.
	st, _ := store.Unmarshal(payload, nil)
	browser, _ := client.New(fetcher, client.WithInitialState(st))
	data, _ := browser.Query(context.Background(), request.Descriptor{Path: "/data/1"}, "hydrate")
	fmt.Println(data.(map[string]any)["field"])

	// Output:
	// x
}
