// SPDX-License-Identifier: MPL-2.0
// Copyright 2026 Sagacient <sagacient@gmail.com>
//
// See CONTRIBUTORS.md for full contributor list.

package reshape

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/jszwec/csvutil"
)

// WriteCSV writes observations as an entity,year,metric,value table.
// Missing values are written as empty cells.
func WriteCSV(w io.Writer, obs []Observation) error {
	cw := csv.NewWriter(w)
	enc := csvutil.NewEncoder(cw)

	if len(obs) == 0 {
		if err := enc.EncodeHeader(Observation{}); err != nil {
			return fmt.Errorf("failed to write header: %w", err)
		}
	}
	for _, o := range obs {
		if err := enc.Encode(o); err != nil {
			return fmt.Errorf("failed to encode observation: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// ReadCSV parses the output of WriteCSV.
func ReadCSV(r io.Reader) ([]Observation, error) {
	dec, err := csvutil.NewDecoder(csv.NewReader(r))
	if err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	var out []Observation
	for {
		var o Observation
		if err := dec.Decode(&o); err == io.EOF {
			break
		} else if err != nil {
			return nil, fmt.Errorf("failed to decode observation: %w", err)
		}
		out = append(out, o)
	}
	return out, nil
}
