package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/vortexdb/colexec/codegen"
	"github.com/vortexdb/colexec/exprtext"
	"github.com/vortexdb/colexec/ingest"
	"github.com/vortexdb/colexec/vector"
)

var s3Client *s3.Client

var dummyStatusCode int = -1

// recordingResponseWriter adapts the net/http handler surface to a
// Lambda Function URL response, the same shim smda's handler uses to reuse
// its router under lambda.Start.
type recordingResponseWriter struct {
	headers http.Header
	buffer  bytes.Buffer
	status  int
}

func newRecordingResponseWriter() *recordingResponseWriter {
	return &recordingResponseWriter{
		headers: make(http.Header),
		status:  dummyStatusCode,
	}
}

func (rw *recordingResponseWriter) Header() http.Header {
	return rw.headers
}

func (rw *recordingResponseWriter) WriteHeader(statusCode int) {
	rw.status = statusCode
}

func (rw *recordingResponseWriter) Write(s []byte) (int, error) {
	if rw.status == dummyStatusCode {
		rw.status = http.StatusOK
	}
	return rw.buffer.Write(s)
}

func lambdaRequestToNative(req events.LambdaFunctionURLRequest) *http.Request {
	header := make(http.Header, len(req.Headers))
	for k, v := range req.Headers {
		header.Set(k, v)
	}
	return &http.Request{
		Method:        req.RequestContext.HTTP.Method,
		Proto:         req.RequestContext.HTTP.Protocol,
		RemoteAddr:    req.RequestContext.HTTP.SourceIP,
		Body:          io.NopCloser(strings.NewReader(req.Body)),
		ContentLength: int64(len(req.Body)),
		Header:        header,
		URL: &url.URL{
			Scheme:   "https",
			Host:     req.RequestContext.DomainName,
			Path:     req.RequestContext.HTTP.Path,
			RawPath:  req.RawPath,
			RawQuery: req.RawQueryString,
		},
	}
}

func (rw *recordingResponseWriter) toLambdaFunctionResponse() events.LambdaFunctionURLResponse {
	headers := make(map[string]string)
	for h, v := range rw.headers {
		headers[h] = strings.Join(v, ",")
	}
	return events.LambdaFunctionURLResponse{
		StatusCode:      rw.status,
		Body:            rw.buffer.String(),
		IsBase64Encoded: false,
		Headers:         headers,
	}
}

// handleEval fetches the CSV named by ?bucket=&key=, compiles ?expr=
// against its inferred schema, and writes the evaluated column as JSON -
// the Lambda-side twin of cmd/server's /eval, reading from S3 instead of a
// multipart upload.
func handleEval(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	q := r.URL.Query()
	bucket, key, expression := q.Get("bucket"), q.Get("key"), q.Get("expr")
	if bucket == "" || key == "" || expression == "" {
		http.Error(w, "missing required query parameters: bucket, key, expr", http.StatusBadRequest)
		return
	}

	obj, err := s3Client.GetObject(r.Context(), &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		http.Error(w, fmt.Sprintf("failed to fetch s3://%s/%s: %v", bucket, key, err), http.StatusBadGateway)
		return
	}
	defer obj.Body.Close()

	b, schema, err := ingest.LoadCSV(obj.Body)
	if err != nil {
		http.Error(w, fmt.Sprintf("failed to load csv: %v", err), http.StatusUnprocessableEntity)
		return
	}
	defer b.Free()

	bound, err := exprtext.ParseAndBind(expression, schema)
	if err != nil {
		http.Error(w, fmt.Sprintf("failed to bind expression: %v", err), http.StatusUnprocessableEntity)
		return
	}
	program, err := codegen.Compile(bound)
	if err != nil {
		http.Error(w, fmt.Sprintf("failed to compile expression: %v", err), http.StatusUnprocessableEntity)
		return
	}
	result, err := program.Apply(b)
	if err != nil {
		http.Error(w, fmt.Sprintf("failed to evaluate expression: %v", err), http.StatusUnprocessableEntity)
		return
	}

	if err := json.NewEncoder(w).Encode(toJSONValues(result)); err != nil {
		panic(err)
	}
}

func toJSONValues(v vector.Vector) []interface{} {
	out := make([]interface{}, v.Len())
	nb := v.Nullability()
	for i := range out {
		if nb != nil && !nb.Get(i) {
			out[i] = nil
			continue
		}
		switch t := v.(type) {
		case *vector.Int32Vector:
			out[i] = t.Get(i)
		case *vector.Int64Vector:
			out[i] = t.Get(i)
		case *vector.Float32Vector:
			out[i] = t.Get(i)
		case *vector.Float64Vector:
			out[i] = t.Get(i)
		case *vector.BoolVector:
			out[i] = t.Get(i)
		case *vector.StringVector:
			out[i] = t.Get(i)
		}
	}
	return out
}

func HandleRequest(ctx context.Context, req events.LambdaFunctionURLRequest) (events.LambdaFunctionURLResponse, error) {
	if s3Client == nil {
		cfg, err := config.LoadDefaultConfig(ctx)
		if err != nil {
			panic(err.Error())
		}
		s3Client = s3.NewFromConfig(cfg)
		log.Println("s3 client initialised")
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/eval", handleEval)

	rw := newRecordingResponseWriter()
	httpReq := lambdaRequestToNative(req)
	mux.ServeHTTP(rw, httpReq)

	return rw.toLambdaFunctionResponse(), nil
}

func main() {
	lambda.Start(HandleRequest)
}
