package output

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/iancoleman/orderedmap"
	"github.com/klauspost/compress/zstd"
	"github.com/spf13/cast"
	"github.com/vmihailenco/msgpack/v5"
)

// MarshalJSON encodes o as an object of series keyed by variable name, in
// output order.
func (o *Output) MarshalJSON() ([]byte, error) {
	m := orderedmap.New()
	for _, n := range o.names {
		m.Set(n, o.series[n])
	}
	return json.Marshal(m)
}

func (o *Output) UnmarshalJSON(data []byte) error {
	m := orderedmap.New()
	if err := json.Unmarshal(data, m); err != nil {
		return err
	}

	decoded := &Output{series: make(map[string][]float64)}
	for _, k := range m.Keys() {
		raw, _ := m.Get(k)
		items, ok := raw.([]interface{})
		if !ok {
			return fmt.Errorf("output: series %q is not an array", k)
		}
		values := make([]float64, len(items))
		for i, item := range items {
			v, err := cast.ToFloat64E(item)
			if err != nil {
				return fmt.Errorf("output: series %q: %w", k, err)
			}
			values[i] = v
		}
		decoded.names = append(decoded.names, k)
		decoded.series[k] = values
	}
	if err := decoded.validate(); err != nil {
		return err
	}
	*o = *decoded
	return nil
}

func (o *Output) validate() error {
	t, ok := o.series["t"]
	if !ok {
		return fmt.Errorf("%w: t", ErrMissingVariable)
	}
	for _, n := range o.names {
		if len(o.series[n]) != len(t) {
			return fmt.Errorf("output: series %q has %d samples, want %d", n, len(o.series[n]), len(t))
		}
	}
	return nil
}

func (o *Output) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(o)
}

// WriteCSV writes one row per sample with a header of variable names.
func (o *Output) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(o.names); err != nil {
		return err
	}

	row := make([]string, len(o.names))
	for i := 0; i < o.Len(); i++ {
		for j, n := range o.names {
			row[j] = strconv.FormatFloat(o.series[n][i], 'g', -1, 64)
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

type packed struct {
	Names  []string    `msgpack:"names"`
	Series [][]float64 `msgpack:"series"`
}

// EncodeMsgpack writes o as zstd-compressed msgpack.
func (o *Output) EncodeMsgpack(w io.Writer) error {
	p := packed{Names: o.names, Series: make([][]float64, len(o.names))}
	for i, n := range o.names {
		p.Series[i] = o.series[n]
	}

	zw, err := zstd.NewWriter(w)
	if err != nil {
		return err
	}
	if err := msgpack.NewEncoder(zw).Encode(p); err != nil {
		zw.Close()
		return err
	}
	return zw.Close()
}

func DecodeMsgpack(r io.Reader) (*Output, error) {
	zr, err := zstd.NewReader(r)
	if err != nil {
		return nil, err
	}
	defer zr.Close()

	var p packed
	if err := msgpack.NewDecoder(zr).Decode(&p); err != nil {
		return nil, err
	}
	if len(p.Names) != len(p.Series) {
		return nil, fmt.Errorf("output: %d names for %d series", len(p.Names), len(p.Series))
	}

	o := &Output{series: make(map[string][]float64)}
	for i, n := range p.Names {
		o.names = append(o.names, n)
		o.series[n] = p.Series[i]
		if o.series[n] == nil {
			o.series[n] = []float64{}
		}
	}
	if err := o.validate(); err != nil {
		return nil, err
	}
	return o, nil
}
