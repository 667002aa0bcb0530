package change

import "testing"

func TestCompress(t *testing.T) {
	in := []Record{
		{Op: OpInput},
		{Op: OpInput},
		{Op: OpFormat, Path: "p[1]", Detail: "bold"},
		{Op: OpFormat, Path: "p[1]", Detail: "italic"},
		{Op: OpFormat, Path: "p[2]", Detail: "italic"},
		{Op: OpMedia, Path: "img[1]", Detail: "resize"},
		{Op: OpMedia, Path: "img[1]", Detail: "replace"},
		{Op: OpInput},
	}
	got := Compress(in)
	want := []Record{
		{Op: OpInput},
		{Op: OpFormat, Path: "p[1]", Detail: "italic"},
		{Op: OpFormat, Path: "p[2]", Detail: "italic"},
		{Op: OpMedia, Path: "img[1]", Detail: "resize"},
		{Op: OpMedia, Path: "img[1]", Detail: "replace"},
		{Op: OpInput},
	}
	if len(got) != len(want) {
		t.Fatalf("len: got %d, want %d (%+v)", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("[%d]: got %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestCompress_Short(t *testing.T) {
	if got := Compress(nil); len(got) != 0 {
		t.Errorf("nil: got %v", got)
	}
	one := []Record{{Op: OpDrag}}
	if got := Compress(one); len(got) != 1 || got[0].Op != OpDrag {
		t.Errorf("single: got %v", got)
	}
}

func TestUnmarshal_Fields(t *testing.T) {
	data := []byte(`{"id":"b1","doc_id":"d","seq":7,"origin":"undo","html":"<p>x</p>","timestamp":42}`)
	b, err := Unmarshal(data)
	if err != nil {
		t.Fatal(err)
	}
	if b.Seq != 7 || b.Origin != OpUndo || b.HTML != "<p>x</p>" {
		t.Errorf("got %+v", b)
	}
	if _, err := Unmarshal([]byte(`{`)); err == nil {
		t.Error("expected error for truncated JSON")
	}
}
