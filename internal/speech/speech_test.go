package speech

import (
	"testing"
	"time"
)

func TestPickVoice(t *testing.T) {
	voices := []Voice{
		{ID: "zh-CN-XiaoxiaoNeural", Name: "Xiaoxiao Neural", Locale: "zh-CN"},
		{ID: "en-GB-basic", Name: "Basic", Locale: "en-GB"},
		{ID: "en-US-AriaNeural", Name: "Aria", Locale: "en-US"},
	}

	v := PickVoice(voices, "en-US")
	if v == nil || v.ID != "en-US-AriaNeural" {
		t.Fatalf("expected neural English voice, got %+v", v)
	}

	v = PickVoice(voices[:2], "en-US")
	if v == nil || v.ID != "en-GB-basic" {
		t.Fatalf("expected any English voice, got %+v", v)
	}

	if v := PickVoice(voices[:1], "en-US"); v != nil {
		t.Fatalf("expected nil without English voices, got %+v", v)
	}
	if v := PickVoice(nil, ""); v != nil {
		t.Fatalf("expected nil for empty list, got %+v", v)
	}
}

func TestPickVoice_ReturnsCopy(t *testing.T) {
	voices := []Voice{{ID: "a", Name: "Premium", Locale: "en_US"}}
	v := PickVoice(voices, "en")
	v.Name = "changed"
	if voices[0].Name != "Premium" {
		t.Fatal("PickVoice should not alias the input slice")
	}
}

func TestEdgeRate(t *testing.T) {
	tests := []struct {
		rate float64
		want string
	}{
		{1, "+0%"},
		{0.9, "-10%"},
		{1.5, "+50%"},
		{0.1, "-90%"},
		{0, "+0%"},
	}
	for _, tt := range tests {
		if got := EdgeRate(tt.rate); got != tt.want {
			t.Errorf("EdgeRate(%v) = %q, want %q", tt.rate, got, tt.want)
		}
	}
}

func TestEdgePitchAndVolume(t *testing.T) {
	pitches := map[float64]string{1: "+0Hz", 1.2: "+20Hz", 0.8: "-20Hz", 0: "+0Hz"}
	for in, want := range pitches {
		if got := EdgePitch(in); got != want {
			t.Errorf("EdgePitch(%v) = %q, want %q", in, got, want)
		}
	}
	volumes := map[float64]string{1: "+0%", 0.5: "-50%", 0: "+0%", 3: "+0%"}
	for in, want := range volumes {
		if got := EdgeVolume(in); got != want {
			t.Errorf("EdgeVolume(%v) = %q, want %q", in, got, want)
		}
	}
}

// edgeWordMeta 和 edge-tts-go 放进 "text" 字段的结构体形状一致。
type edgeWordMeta struct {
	Text         string `json:"Text"`
	Length       int64  `json:"Length"`
	BoundaryType string `json:"BoundaryType"`
}

func boundaryMsg(text interface{}, offset interface{}) map[string]interface{} {
	return map[string]interface{}{
		"type":     "WordBoundary",
		"offset":   offset,
		"duration": 2000000,
		"text":     text,
	}
}

func TestEdgeMark(t *testing.T) {
	const sentence = "to be or not to be"
	tests := []struct {
		name       string
		msg        map[string]interface{}
		cursor     int
		wantOK     bool
		wantIndex  int
		wantNext   int
		wantOffset time.Duration
	}{
		{
			name:       "struct text",
			msg:        boundaryMsg(edgeWordMeta{Text: "be", Length: 2, BoundaryType: "WordBoundary"}, 1000000),
			wantOK:     true,
			wantIndex:  3,
			wantNext:   5,
			wantOffset: 100 * time.Millisecond,
		},
		{
			name:       "repeated word after cursor",
			msg:        boundaryMsg(edgeWordMeta{Text: "to", Length: 2}, 5000000),
			cursor:     2,
			wantOK:     true,
			wantIndex:  13,
			wantNext:   15,
			wantOffset: 500 * time.Millisecond,
		},
		{
			name:       "pointer to struct",
			msg:        boundaryMsg(&edgeWordMeta{Text: "not"}, int64(7000000)),
			wantOK:     true,
			wantIndex:  9,
			wantNext:   12,
			wantOffset: 700 * time.Millisecond,
		},
		{
			name:       "decoded json object",
			msg:        boundaryMsg(map[string]interface{}{"Text": "or", "Length": 2.0}, float64(3000000)),
			wantOK:     true,
			wantIndex:  6,
			wantNext:   8,
			wantOffset: 300 * time.Millisecond,
		},
		{
			name:       "plain string",
			msg:        boundaryMsg("be", 2000000),
			cursor:     5,
			wantOK:     true,
			wantIndex:  16,
			wantNext:   18,
			wantOffset: 200 * time.Millisecond,
		},
		{name: "word not in sentence", msg: boundaryMsg(edgeWordMeta{Text: "xyz"}, 0), cursor: 4},
		{name: "empty text", msg: boundaryMsg(edgeWordMeta{}, 0), cursor: 4},
		{name: "missing offset", msg: boundaryMsg(edgeWordMeta{Text: "be"}, nil), cursor: 4},
		{name: "audio message", msg: map[string]interface{}{"type": "audio", "data": []byte{1}}, cursor: 4},
		{name: "error message", msg: map[string]interface{}{"type": "error", "text": "boom"}, cursor: 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, next, ok := edgeMark(tt.msg, sentence, tt.cursor)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if !ok {
				if next != tt.cursor {
					t.Errorf("cursor moved to %d on a dropped message", next)
				}
				return
			}
			if m.CharIndex != tt.wantIndex || next != tt.wantNext || m.Offset != tt.wantOffset {
				t.Errorf("got index=%d next=%d offset=%v, want %d %d %v",
					m.CharIndex, next, m.Offset, tt.wantIndex, tt.wantNext, tt.wantOffset)
			}
			if m.Name != sentence[m.CharIndex:next] {
				t.Errorf("mark name %q does not match sentence slice", m.Name)
			}
		})
	}
}

func TestEdgeMark_Sequence(t *testing.T) {
	const sentence = "We need to check it out."
	words := []string{"We", "need", "to", "check", "it", "out"}
	var marks []Mark
	cursor := 0
	for i, w := range words {
		msg := boundaryMsg(edgeWordMeta{Text: w, Length: int64(len(w)), BoundaryType: "WordBoundary"}, (i+1)*1000000)
		m, next, ok := edgeMark(msg, sentence, cursor)
		if !ok {
			t.Fatalf("word %q dropped", w)
		}
		marks = append(marks, m)
		cursor = next
	}
	want := []int{0, 3, 8, 11, 17, 20}
	for i, m := range marks {
		if m.CharIndex != want[i] {
			t.Errorf("mark %d at %d, want %d", i, m.CharIndex, want[i])
		}
		if m.Offset != time.Duration(i+1)*100*time.Millisecond {
			t.Errorf("mark %d offset %v", i, m.Offset)
		}
	}
}

func TestTencentSpeed(t *testing.T) {
	tests := []struct {
		rate float64
		want float64
	}{
		{1, 0},
		{0.9, -0.5},
		{1.2, 1},
		{0.1, -2},
		{2.5, 6},
		{0, 0},
	}
	for _, tt := range tests {
		if got := TencentSpeed(tt.rate); got != tt.want {
			t.Errorf("TencentSpeed(%v) = %v, want %v", tt.rate, got, tt.want)
		}
	}
}

func TestLocateWord(t *testing.T) {
	s := "to be or not to be"
	if got := locateWord(s, "to", 0); got != 0 {
		t.Errorf("first 'to' at %d", got)
	}
	if got := locateWord(s, "to", 2); got != 13 {
		t.Errorf("second 'to' at %d", got)
	}
	if got := locateWord(s, "or", 99); got != 6 {
		t.Errorf("out of range cursor should restart, got %d", got)
	}
	if got := locateWord(s, "xyz", 0); got != -1 {
		t.Errorf("missing word at %d", got)
	}
}

func TestNumeric(t *testing.T) {
	for _, v := range []interface{}{int(5), int64(5), float64(5.7), float32(5), uint64(5)} {
		if n, ok := numeric(v); !ok || n != 5 {
			t.Errorf("numeric(%T) = %d, %v", v, n, ok)
		}
	}
	if _, ok := numeric("5"); ok {
		t.Error("string should not be numeric")
	}
}

func TestEdgeLocale(t *testing.T) {
	if got := edgeLocale("en-US-AriaNeural"); got != "en-US" {
		t.Errorf("got %q", got)
	}
	if got := edgeLocale("Aria"); got != "" {
		t.Errorf("got %q", got)
	}
	b := NewEdgeBackend([]string{"en-GB-SoniaNeural"})
	if v := PickVoice(b.Voices(), "en-US"); v == nil || v.ID != "en-GB-SoniaNeural" {
		t.Fatalf("unexpected voice %+v", v)
	}
}
