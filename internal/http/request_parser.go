package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

// maxBodyBytes caps request bodies well above any legitimate payload.
const maxBodyBytes = 1 << 20

var errBadBody = errors.New("invalid request body")

// decodeJSON reads a JSON body into dst and runs struct validation on it.
func decodeJSON(r *http.Request, validate *validator.Validate, dst any) error {
	body := http.MaxBytesReader(nil, r.Body, maxBodyBytes)
	defer func() { _, _ = io.Copy(io.Discard, body) }()

	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: %s", errBadBody, decodeErrorDetail(err))
	}
	if dec.More() {
		return fmt.Errorf("%w: trailing data after JSON object", errBadBody)
	}
	if err := validate.Struct(dst); err != nil {
		return err
	}
	return nil
}

func decodeErrorDetail(err error) string {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.As(err, &syntaxErr):
		return fmt.Sprintf("malformed JSON at offset %d", syntaxErr.Offset)
	case errors.As(err, &typeErr):
		return fmt.Sprintf("wrong type for field %q", typeErr.Field)
	case errors.Is(err, io.EOF):
		return "empty body"
	default:
		return err.Error()
	}
}

// queryInt reads an integer query parameter, returning fallback when the
// parameter is absent or malformed.
func queryInt(r *http.Request, name string, fallback int) int {
	v := strings.TrimSpace(r.URL.Query().Get(name))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
