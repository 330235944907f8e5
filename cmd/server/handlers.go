package main

import (
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"

	"github.com/vortexdb/colexec/codegen"
	"github.com/vortexdb/colexec/exprtext"
	"github.com/vortexdb/colexec/ingest"
	"github.com/vortexdb/colexec/vector"
)

// setupRoutes wires the single /eval operation this core actually performs,
// narrowed from smda/src/web/router.go's full dataset/query surface.
func setupRoutes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/status", handleStatus())
	mux.HandleFunc("/eval", handleEval())
	return mux
}

func handleStatus() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"status": "ok"}`)
	}
}

// handleEval accepts a multipart form: a "data" file part holding a CSV and
// an "expr" text part holding the expression to evaluate, and responds with
// the evaluated column as a JSON array (nulls rendered as JSON null).
func handleEval() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.Method != http.MethodPost {
			http.Error(w, "only POST requests allowed for /eval", http.StatusMethodNotAllowed)
			return
		}

		if err := r.ParseMultipartForm(32 << 20); err != nil {
			http.Error(w, fmt.Sprintf("failed to parse multipart form: %v", err), http.StatusBadRequest)
			return
		}

		expression := r.FormValue("expr")
		if expression == "" {
			http.Error(w, "missing required form field \"expr\"", http.StatusBadRequest)
			return
		}

		file, _, err := r.FormFile("data")
		if err != nil {
			http.Error(w, fmt.Sprintf("missing required form file \"data\": %v", err), http.StatusBadRequest)
			return
		}
		defer file.Close()

		res, err := evalAgainstCSV(expression, file)
		if err != nil {
			http.Error(w, fmt.Sprintf("failed to evaluate expression: %v", err), http.StatusUnprocessableEntity)
			return
		}

		if err := json.NewEncoder(w).Encode(res); err != nil {
			// the response is already partially written past this point;
			// nothing more we can do but note it happened.
			panic(err)
		}
	}
}

func evalAgainstCSV(expression string, file multipart.File) ([]interface{}, error) {
	b, schema, err := ingest.LoadCSV(file)
	if err != nil {
		return nil, err
	}
	defer b.Free()

	bound, err := exprtext.ParseAndBind(expression, schema)
	if err != nil {
		return nil, err
	}
	program, err := codegen.Compile(bound)
	if err != nil {
		return nil, err
	}
	result, err := program.Apply(b)
	if err != nil {
		return nil, err
	}
	return toJSONValues(result), nil
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
