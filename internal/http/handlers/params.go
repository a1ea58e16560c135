package handlers

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/sciencemap-backend/internal/normalization"
)

// queryInt reads an integer query value. Missing or unparseable values are
// nil so the view falls back to its default.
func queryInt(c *gin.Context, name string) *int {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return nil
	}
	return &n
}

// queryList accepts both ?k=a,b and ?k=a&k=b.
func queryList(c *gin.Context, name string) []string {
	var out []string
	for _, v := range c.QueryArray(name) {
		out = append(out, normalization.SplitList(v)...)
	}
	return out
}

// flexInt decodes a JSON number or numeric string; anything else, including
// null and values outside the int range, leaves it unset.
type flexInt struct {
	v *int
}

func (f *flexInt) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}
	var num json.Number
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return nil
		}
		num = json.Number(strings.TrimSpace(s))
	} else {
		num = json.Number(b)
	}
	if n, err := num.Int64(); err == nil {
		if n < math.MinInt || n > math.MaxInt {
			return nil
		}
		v := int(n)
		f.v = &v
		return nil
	}
	fl, err := num.Float64()
	if err != nil || math.IsNaN(fl) || fl < math.MinInt || fl >= math.MaxInt {
		return nil
	}
	v := int(fl)
	f.v = &v
	return nil
}

type yearRange struct {
	From flexInt `json:"from"`
	To   flexInt `json:"to"`
}

type pathQueryRequest struct {
	StartID         string     `json:"startId"`
	EndID           string     `json:"endId"`
	Strategy        string     `json:"strategy"`
	AllowedRelTypes []string   `json:"allowedRelTypes"`
	YearRange       *yearRange `json:"yearRange"`
	MaxHops         flexInt    `json:"maxHops"`
}
