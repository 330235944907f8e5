package main

import (
	"bytes"
	"context"
	"encoding/json"
	"math/rand"
	"mime/multipart"
	"net"
	"net/http"
	"strconv"
	"sync"
	"testing"
	"time"
)

func TestRunningServer(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	wg.Add(1)
	port := 10000 + rand.Intn(1000)
	go func() {
		defer wg.Done()
		if err := run(ctx, port, false); err != nil {
			panic(err)
		}
	}()

	cancel()
	wg.Wait()
	time.Sleep(50 * time.Millisecond)
	listener, err := net.Listen("tcp", net.JoinHostPort("localhost", strconv.Itoa(port)))
	if err != nil {
		t.Fatalf("the port should be free, we should have shut down the server, got %v instead", err)
	}
	listener.Close()
}

func TestBusyPort(t *testing.T) {
	listener, err := net.Listen("tcp", "localhost:10321")
	if err != nil {
		t.Fatal(err)
	}
	defer listener.Close()

	if err := run(context.Background(), 10321, false); err == nil {
		t.Fatal("expecting launching with a port busy errs, it did not")
	}
}

func TestRunningHTTPStatus(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	wg.Add(1)
	port := 10000 + rand.Intn(1000)
	go func() {
		defer wg.Done()
		if err := run(ctx, port, false); err != nil {
			panic(err)
		}
	}()

	time.Sleep(100 * time.Millisecond)
	resp, err := http.Get("http://" + net.JoinHostPort("localhost", strconv.Itoa(port)) + "/status")
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status OK, got %v", resp.StatusCode)
	}

	cancel()
	wg.Wait()
}

func TestEvalEndpoint(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	wg.Add(1)
	port := 10000 + rand.Intn(1000)
	go func() {
		defer wg.Done()
		if err := run(ctx, port, false); err != nil {
			panic(err)
		}
	}()
	defer func() {
		cancel()
		wg.Wait()
	}()
	time.Sleep(100 * time.Millisecond)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if err := mw.WriteField("expr", "a + b"); err != nil {
		t.Fatal(err)
	}
	dataPart, err := mw.CreateFormFile("data", "data.csv")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := dataPart.Write([]byte("a,b\n1,2\n3,4\n")); err != nil {
		t.Fatal(err)
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}

	url := "http://" + net.JoinHostPort("localhost", strconv.Itoa(port)) + "/eval"
	resp, err := http.Post(url, mw.FormDataContentType(), &body)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status OK, got %v", resp.StatusCode)
	}

	var got []interface{}
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatal(err)
	}
	want := []interface{}{float64(3), float64(7)}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestEvalEndpointRejectsGet(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	wg.Add(1)
	port := 10000 + rand.Intn(1000)
	go func() {
		defer wg.Done()
		if err := run(ctx, port, false); err != nil {
			panic(err)
		}
	}()
	defer func() {
		cancel()
		wg.Wait()
	}()
	time.Sleep(100 * time.Millisecond)

	resp, err := http.Get("http://" + net.JoinHostPort("localhost", strconv.Itoa(port)) + "/eval")
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %v", resp.StatusCode)
	}
}
