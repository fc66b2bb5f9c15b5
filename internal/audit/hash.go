package audit

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/janpulse/govaudit/internal/types"
)

// ReportHash computes the content hash of a report: SHA-256 over the
// canonical JSON serialization with the hash field itself absent. The same
// report always hashes to the same digest regardless of how its JSON was
// produced, which is what lets a verifier recompute the digest from a
// persisted snapshot row.
func ReportHash(report types.AuditReport) (string, error) {
	report.Hash = ""
	raw, err := json.Marshal(report)
	if err != nil {
		return "", fmt.Errorf("marshaling report: %w", err)
	}
	canon, err := canonicalize(raw)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(canon)
	return hex.EncodeToString(sum[:]), nil
}

// VerifySnapshot recomputes the hash of a persisted snapshot's report and
// compares it to the stored digest.
func VerifySnapshot(snap *types.Snapshot) (bool, error) {
	got, err := ReportHash(snap.Report)
	if err != nil {
		return false, err
	}
	return got == snap.Hash, nil
}

// canonicalize re-encodes a JSON document with object keys sorted and no
// insignificant whitespace. Numbers pass through verbatim (decoded as
// json.Number) so canonical form never depends on float re-formatting.
func canonicalize(raw []byte) ([]byte, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("parsing report JSON: %w", err)
	}

	var buf bytes.Buffer
	if err := writeCanonical(&buf, doc); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeCanonical(buf *bytes.Buffer, v any) error {
	switch val := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		buf.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			keyJSON, err := json.Marshal(k)
			if err != nil {
				return fmt.Errorf("encoding key %q: %w", k, err)
			}
			buf.Write(keyJSON)
			buf.WriteByte(':')
			if err := writeCanonical(buf, val[k]); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
		return nil

	case []any:
		buf.WriteByte('[')
		for i, elem := range val {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeCanonical(buf, elem); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
		return nil

	case json.Number:
		buf.WriteString(val.String())
		return nil

	default:
		// Strings, booleans, null.
		enc, err := json.Marshal(val)
		if err != nil {
			return fmt.Errorf("encoding value: %w", err)
		}
		buf.Write(enc)
		return nil
	}
}
