package metadata

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
)

var pngSignature = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

const xmpKeyword = "XML:com.adobe.xmp"

var (
	reXMPDateElem    = regexp.MustCompile(`<photoshop:DateCreated>([^<]+)</photoshop:DateCreated>`)
	reXMPDateAttr    = regexp.MustCompile(`photoshop:DateCreated="([^"]+)"`)
	reXMPUserComment = regexp.MustCompile(`(?s)<exif:UserComment>.*?<rdf:li[^>]*>([^<]*)</rdf:li>`)
)

// pngFields extracts XMP fields from the iTXt chunk of a PNG stream.
func pngFields(r io.Reader) (map[string]string, error) {
	packet, err := pngXMP(r)
	if err != nil {
		return nil, err
	}

	fields := make(map[string]string)
	if m := reXMPDateElem.FindStringSubmatch(packet); m != nil {
		fields[FieldXMPDateCreated] = xmpToExifDate(m[1])
	} else if m := reXMPDateAttr.FindStringSubmatch(packet); m != nil {
		fields[FieldXMPDateCreated] = xmpToExifDate(m[1])
	}
	if m := reXMPUserComment.FindStringSubmatch(packet); m != nil {
		if c := strings.TrimSpace(m[1]); c != "" {
			fields[FieldXMPUserComment] = c
		}
	}
	return fields, nil
}

// pngXMP walks the chunk list until it finds the XMP packet. A PNG without
// one yields an empty packet.
func pngXMP(r io.Reader) (string, error) {
	sig := make([]byte, len(pngSignature))
	if _, err := io.ReadFull(r, sig); err != nil {
		return "", fmt.Errorf("read signature: %w", err)
	}
	if !bytes.Equal(sig, pngSignature) {
		return "", errors.New("not a PNG stream")
	}

	var header [8]byte
	for {
		if _, err := io.ReadFull(r, header[:]); err != nil {
			if errors.Is(err, io.EOF) {
				return "", nil
			}
			return "", fmt.Errorf("read chunk header: %w", err)
		}
		length := binary.BigEndian.Uint32(header[:4])
		kind := string(header[4:8])

		switch kind {
		case "iTXt":
			data := make([]byte, length)
			if _, err := io.ReadFull(r, data); err != nil {
				return "", fmt.Errorf("read iTXt: %w", err)
			}
			if text, ok, err := parseITXt(data); err != nil {
				return "", err
			} else if ok {
				return text, nil
			}
			// crc
			if _, err := io.CopyN(io.Discard, r, 4); err != nil {
				return "", fmt.Errorf("skip crc: %w", err)
			}
		case "IEND":
			return "", nil
		default:
			if _, err := io.CopyN(io.Discard, r, int64(length)+4); err != nil {
				return "", fmt.Errorf("skip %s: %w", kind, err)
			}
		}
	}
}

// parseITXt decodes an iTXt chunk body and reports whether it is the XMP one.
// Layout: keyword 0 flag method language 0 translated 0 text.
func parseITXt(data []byte) (string, bool, error) {
	keyword, rest, ok := bytes.Cut(data, []byte{0})
	if !ok || string(keyword) != xmpKeyword || len(rest) < 2 {
		return "", false, nil
	}
	compressed := rest[0] == 1
	rest = rest[2:]
	if _, rest, ok = bytes.Cut(rest, []byte{0}); !ok {
		return "", false, nil
	}
	if _, rest, ok = bytes.Cut(rest, []byte{0}); !ok {
		return "", false, nil
	}
	if !compressed {
		return string(rest), true, nil
	}
	zr, err := zlib.NewReader(bytes.NewReader(rest))
	if err != nil {
		return "", false, fmt.Errorf("inflate xmp: %w", err)
	}
	defer zr.Close()
	text, err := io.ReadAll(zr)
	if err != nil {
		return "", false, fmt.Errorf("inflate xmp: %w", err)
	}
	return string(text), true, nil
}

// xmpToExifDate rewrites an ISO 8601 XMP date ("2019-08-26T03:51:19.123")
// into exiftool's "2019:08:26 03:51:19" form, dropping fractions and zone.
func xmpToExifDate(s string) string {
	s = strings.TrimSpace(s)
	if len(s) < 10 {
		return s
	}
	date := strings.ReplaceAll(s[:10], "-", ":")
	if len(s) < 19 || s[10] != 'T' {
		return date
	}
	return date + " " + s[11:19]
}
