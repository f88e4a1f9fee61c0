package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strconv"

	"github.com/tablemenu/api/internal/money"
)

const (
	defaultPageLimit = 50
	maxPageLimit     = 100
)

var errNotNumber = errors.New("not a JSON number")

// pagination reads limit and offset query parameters. Missing or malformed
// values fall back to the defaults; limit is clamped to maxPageLimit and
// offset to the int32 range.
func pagination(r *http.Request) (limit, offset int32) {
	limit = defaultPageLimit
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 {
		limit = int32(min(v, maxPageLimit))
	}
	if v, err := strconv.Atoi(r.URL.Query().Get("offset")); err == nil && v > 0 {
		offset = int32(min(v, math.MaxInt32))
	}
	return limit, offset
}

// present reports whether a raw JSON field was sent with a non-null value.
func present(raw json.RawMessage) bool {
	return len(raw) > 0 && !bytes.Equal(raw, []byte("null"))
}

// parseAmount converts a JSON number in major units into minor units.
func parseAmount(c money.Currency, raw json.RawMessage) (money.Amount, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v interface{}
	if err := dec.Decode(&v); err != nil {
		return 0, err
	}
	n, ok := v.(json.Number)
	if !ok {
		return 0, errNotNumber
	}
	return c.Parse(n.String())
}

func parseBool(raw json.RawMessage) (bool, error) {
	var b bool
	err := json.Unmarshal(raw, &b)
	return b, err
}

func parseInt32(raw json.RawMessage) (int32, error) {
	var n int32
	err := json.Unmarshal(raw, &n)
	return n, err
}

func parseInt64(raw json.RawMessage) (int64, error) {
	var n int64
	err := json.Unmarshal(raw, &n)
	return n, err
}
