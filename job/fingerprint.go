package job

import (
	"encoding/json"
	"sort"

	"github.com/cespare/xxhash/v2"
)

// Fingerprint computes the stable 64-bit hash identifying a periodic
// registration: a hash over {worker_name, schedule, canonical(args)}. Two
// syntactically different but semantically identical cron schedules must
// be normalized to the same canonical string by the caller (see
// job.ParseSchedule) before calling Fingerprint, so they hash identically.
func Fingerprint(workerName, canonicalSchedule string, args any) (uint64, error) {
	canonicalArgs, err := canonicalJSON(args)
	if err != nil {
		return 0, err
	}

	h := xxhash.New()
	_, _ = h.WriteString(workerName)
	_, _ = h.WriteString("\x00")
	_, _ = h.WriteString(canonicalSchedule)
	_, _ = h.WriteString("\x00")
	_, _ = h.Write(canonicalArgs)
	return h.Sum64(), nil
}

// canonicalJSON re-marshals args with map keys sorted, so two
// semantically-equal argument values always produce byte-identical JSON.
func canonicalJSON(args any) ([]byte, error) {
	raw, err := json.Marshal(args)
	if err != nil {
		return nil, err
	}

	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return nil, err
	}
	return marshalCanonical(generic)
}

func marshalCanonical(v any) ([]byte, error) {
	switch val := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		buf := []byte{'{'}
		for i, k := range keys {
			if i > 0 {
				buf = append(buf, ',')
			}
			kb, err := json.Marshal(k)
			if err != nil {
				return nil, err
			}
			buf = append(buf, kb...)
			buf = append(buf, ':')
			vb, err := marshalCanonical(val[k])
			if err != nil {
				return nil, err
			}
			buf = append(buf, vb...)
		}
		buf = append(buf, '}')
		return buf, nil
	case []any:
		buf := []byte{'['}
		for i, e := range val {
			if i > 0 {
				buf = append(buf, ',')
			}
			eb, err := marshalCanonical(e)
			if err != nil {
				return nil, err
			}
			buf = append(buf, eb...)
		}
		buf = append(buf, ']')
		return buf, nil
	default:
		return json.Marshal(val)
	}
}
