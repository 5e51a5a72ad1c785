package metadata

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"hash/crc32"
	"os"
	"path/filepath"
	"testing"
	"time"
)

type fakeRunner struct {
	out  []byte
	err  error
	args []string
}

func (f *fakeRunner) Output(_ context.Context, name string, args ...string) ([]byte, error) {
	f.args = append([]string{name}, args...)
	return f.out, f.err
}

func TestExiftoolMetadata(t *testing.T) {
	runner := &fakeRunner{out: []byte(`[{
		"SourceFile": "/in/IMG_0001.MOV",
		"QuickTime:CreationDate": "2019:08:26 19:22:27-04:00",
		"QuickTime:ImageWidth": 1920,
		"Composite:Rotation": null
	}]`)}
	gw := NewExiftool("", runner)

	fields, err := gw.Metadata(context.Background(), "/in/IMG_0001.MOV")
	if err != nil {
		t.Fatalf("Metadata: %v", err)
	}
	if got := fields[FieldCreationDate]; got != "2019:08:26 19:22:27-04:00" {
		t.Fatalf("CreationDate = %q", got)
	}
	if got := fields["QuickTime:ImageWidth"]; got != "1920" {
		t.Fatalf("ImageWidth = %q", got)
	}
	if _, ok := fields["Composite:Rotation"]; ok {
		t.Fatalf("null values should be dropped")
	}
	want := []string{"exiftool", "-json", "-G", "/in/IMG_0001.MOV"}
	if len(runner.args) != len(want) {
		t.Fatalf("args = %v", runner.args)
	}
	for i := range want {
		if runner.args[i] != want[i] {
			t.Fatalf("args = %v, want %v", runner.args, want)
		}
	}
}

func TestExiftoolFailures(t *testing.T) {
	tests := []struct {
		name   string
		runner *fakeRunner
	}{
		{name: "exec error", runner: &fakeRunner{err: errors.New("not found")}},
		{name: "bad json", runner: &fakeRunner{out: []byte("{")}},
		{name: "no records", runner: &fakeRunner{out: []byte("[]")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewExiftool("/usr/bin/exiftool", tt.runner).Metadata(context.Background(), "x.jpg")
			if !errors.Is(err, ErrMetadataUnavailable) {
				t.Fatalf("err = %v, want ErrMetadataUnavailable", err)
			}
		})
	}
}

func TestComment(t *testing.T) {
	tests := []struct {
		fields map[string]string
		want   string
	}{
		{fields: nil, want: ""},
		{fields: map[string]string{FieldImageDescription: " beach "}, want: "beach"},
		{fields: map[string]string{FieldImageDescription: "desc", FieldXMPUserComment: "xmp"}, want: "xmp"},
		{fields: map[string]string{FieldUserComment: "exif", FieldXMPUserComment: "xmp"}, want: "exif"},
		{fields: map[string]string{FieldUserComment: "   ", FieldImageDescription: "desc"}, want: "desc"},
	}
	for _, tt := range tests {
		if got := Comment(tt.fields); got != tt.want {
			t.Fatalf("Comment(%v) = %q, want %q", tt.fields, got, tt.want)
		}
	}
}

func TestNew(t *testing.T) {
	for _, kind := range []string{"", "native", "exiftool"} {
		if _, err := New(kind, ""); err != nil {
			t.Fatalf("New(%q): %v", kind, err)
		}
	}
	if _, err := New("mediainfo", ""); err == nil {
		t.Fatalf("expected error for unknown gateway")
	}
}

func pngChunk(kind string, data []byte) []byte {
	var buf bytes.Buffer
	_ = binary.Write(&buf, binary.BigEndian, uint32(len(data)))
	buf.WriteString(kind)
	buf.Write(data)
	crc := crc32.NewIEEE()
	crc.Write([]byte(kind))
	crc.Write(data)
	_ = binary.Write(&buf, binary.BigEndian, crc.Sum32())
	return buf.Bytes()
}

func testPNG(xmp string) []byte {
	var buf bytes.Buffer
	buf.Write(pngSignature)
	buf.Write(pngChunk("IHDR", make([]byte, 13)))
	if xmp != "" {
		var body bytes.Buffer
		body.WriteString(xmpKeyword)
		body.Write([]byte{0, 0, 0, 0, 0})
		body.WriteString(xmp)
		buf.Write(pngChunk("iTXt", body.Bytes()))
	}
	buf.Write(pngChunk("IEND", nil))
	return buf.Bytes()
}

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestNativePNG(t *testing.T) {
	xmp := `<x:xmpmeta xmlns:x="adobe:ns:meta/"><rdf:RDF><rdf:Description>
<photoshop:DateCreated>2020-05-17T14:03:09.512</photoshop:DateCreated>
<exif:UserComment><rdf:Alt><rdf:li xml:lang="x-default">at the lake</rdf:li></rdf:Alt></exif:UserComment>
</rdf:Description></rdf:RDF></x:xmpmeta>`
	path := writeFile(t, "IMG_0002.PNG", testPNG(xmp))

	fields, err := NewNative().Metadata(context.Background(), path)
	if err != nil {
		t.Fatalf("Metadata: %v", err)
	}
	if got := fields[FieldXMPDateCreated]; got != "2020:05:17 14:03:09" {
		t.Fatalf("DateCreated = %q", got)
	}
	if got := fields[FieldXMPUserComment]; got != "at the lake" {
		t.Fatalf("UserComment = %q", got)
	}
}

func TestNativePNGWithoutXMP(t *testing.T) {
	path := writeFile(t, "plain.png", testPNG(""))
	fields, err := NewNative().Metadata(context.Background(), path)
	if err != nil {
		t.Fatalf("Metadata: %v", err)
	}
	if len(fields) != 0 {
		t.Fatalf("fields = %v, want none", fields)
	}
}

func TestNativeAAE(t *testing.T) {
	doc := `<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">
<plist version="1.0">
<dict>
	<key>adjustmentFormatIdentifier</key>
	<string>com.apple.photo</string>
	<key>adjustmentTimestamp</key>
	<date>2021-03-04T18:22:10Z</date>
</dict>
</plist>`
	path := writeFile(t, "IMG_0101.AAE", []byte(doc))

	fields, err := NewNative().Metadata(context.Background(), path)
	if err != nil {
		t.Fatalf("Metadata: %v", err)
	}
	if got := fields[FieldAdjustmentTimestamp]; got != "2021:03:04 18:22:10Z" {
		t.Fatalf("AdjustmentTimestamp = %q", got)
	}
}

// testMovie builds a minimal moov/mvhd (version 0) stream.
func testMovie(created time.Time) []byte {
	var mvhd bytes.Buffer
	ct := uint32(created.Unix() + mp4EpochOffset)
	_ = binary.Write(&mvhd, binary.BigEndian, uint32(0)) // version + flags
	_ = binary.Write(&mvhd, binary.BigEndian, ct)
	_ = binary.Write(&mvhd, binary.BigEndian, ct)
	_ = binary.Write(&mvhd, binary.BigEndian, uint32(600))
	_ = binary.Write(&mvhd, binary.BigEndian, uint32(0))
	_ = binary.Write(&mvhd, binary.BigEndian, uint32(0x00010000))
	_ = binary.Write(&mvhd, binary.BigEndian, uint16(0x0100))
	mvhd.Write(make([]byte, 10))
	mvhd.Write(make([]byte, 36))
	mvhd.Write(make([]byte, 24))
	_ = binary.Write(&mvhd, binary.BigEndian, uint32(1))

	box := func(kind string, payload []byte) []byte {
		var b bytes.Buffer
		_ = binary.Write(&b, binary.BigEndian, uint32(8+len(payload)))
		b.WriteString(kind)
		b.Write(payload)
		return b.Bytes()
	}
	return box("moov", box("mvhd", mvhd.Bytes()))
}

func TestNativeQuickTime(t *testing.T) {
	created := time.Date(2019, 8, 26, 23, 22, 27, 0, time.UTC)
	path := writeFile(t, "IMG_0003.MP4", testMovie(created))
	gw := &Native{Location: time.FixedZone("EDT", -4*3600)}

	fields, err := gw.Metadata(context.Background(), path)
	if err != nil {
		t.Fatalf("Metadata: %v", err)
	}
	if got := fields[FieldCreateDate]; got != "2019:08:26 23:22:27" {
		t.Fatalf("CreateDate = %q", got)
	}
	if got := fields[FieldCreationDate]; got != "2019:08:26 19:22:27-04:00" {
		t.Fatalf("CreationDate = %q", got)
	}
}

func TestNativeUnavailable(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{name: "IMG_0004.JPG", data: []byte("not a jpeg")},
		{name: "IMG_0005.PNG", data: []byte("not a png")},
		{name: "IMG_0006.MOV", data: nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, tt.name, tt.data)
			_, err := NewNative().Metadata(context.Background(), path)
			if !errors.Is(err, ErrMetadataUnavailable) {
				t.Fatalf("err = %v, want ErrMetadataUnavailable", err)
			}
		})
	}

	_, err := NewNative().Metadata(context.Background(), filepath.Join(t.TempDir(), "missing.jpg"))
	if !errors.Is(err, ErrMetadataUnavailable) {
		t.Fatalf("missing file: err = %v", err)
	}
}

func TestNativeUnknownExtension(t *testing.T) {
	path := writeFile(t, "notes.txt", []byte("hello"))
	fields, err := NewNative().Metadata(context.Background(), path)
	if err != nil {
		t.Fatalf("Metadata: %v", err)
	}
	if len(fields) != 0 {
		t.Fatalf("fields = %v", fields)
	}
}

func TestXMPToExifDate(t *testing.T) {
	tests := map[string]string{
		"2020-05-17T14:03:09":       "2020:05:17 14:03:09",
		"2020-05-17T14:03:09+02:00": "2020:05:17 14:03:09",
		"2020-05-17":                "2020:05:17",
		"2020":                      "2020",
	}
	for in, want := range tests {
		if got := xmpToExifDate(in); got != want {
			t.Fatalf("xmpToExifDate(%q) = %q, want %q", in, got, want)
		}
	}
}
