package logging

import "log/slog"

// fieldSet is an ordered set of flattened attributes. A repeated key keeps
// its first position and its last value.
type fieldSet struct {
	keys   []string
	values map[string]slog.Value
}

func (s *fieldSet) add(prefix string, attr slog.Attr) {
	if attr.Equal(slog.Attr{}) {
		return
	}
	value := attr.Value.Resolve()
	key := joinKey(prefix, attr.Key)
	if value.Kind() == slog.KindGroup {
		for _, member := range value.Group() {
			s.add(key, member)
		}
		return
	}
	if key == "" {
		return
	}
	if s.values == nil {
		s.values = make(map[string]slog.Value)
	}
	if _, seen := s.values[key]; !seen {
		s.keys = append(s.keys, key)
	}
	s.values[key] = value
}

// take removes key and returns its value rendered as plain text.
func (s *fieldSet) take(key string) string {
	value, ok := s.values[key]
	if !ok {
		return ""
	}
	delete(s.values, key)
	for i, k := range s.keys {
		if k == key {
			s.keys = append(s.keys[:i:i], s.keys[i+1:]...)
			break
		}
	}
	return attrString(value)
}

func (s *fieldSet) each(fn func(key string, value slog.Value)) {
	for _, key := range s.keys {
		fn(key, s.values[key])
	}
}

func (s *fieldSet) size() int { return len(s.keys) }

func (s *fieldSet) clone() fieldSet {
	out := fieldSet{keys: append([]string(nil), s.keys...)}
	if len(s.values) > 0 {
		out.values = make(map[string]slog.Value, len(s.values))
		for k, v := range s.values {
			out.values[k] = v
		}
	}
	return out
}

func joinKey(prefix, key string) string {
	switch {
	case prefix == "":
		return key
	case key == "":
		return prefix
	default:
		return prefix + "." + key
	}
}
