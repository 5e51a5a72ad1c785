package metadata

import (
	"errors"
	"io"
	"time"

	mp4 "github.com/abema/go-mp4"
)

// Seconds between the ISO BMFF epoch (1904-01-01 UTC) and the Unix epoch.
const mp4EpochOffset = 2082844800

// mvhdCreationTime reads moov/mvhd and returns the movie creation time in UTC.
func mvhdCreationTime(r io.ReadSeeker) (time.Time, error) {
	boxes, err := mp4.ExtractBoxesWithPayload(r, nil, []mp4.BoxPath{
		{mp4.BoxTypeMoov(), mp4.BoxTypeMvhd()},
	})
	if err != nil {
		return time.Time{}, err
	}

	for _, box := range boxes {
		mvhd, ok := box.Payload.(*mp4.Mvhd)
		if !ok {
			continue
		}
		ct := mvhd.GetCreationTime()
		if ct == 0 {
			return time.Time{}, errors.New("mvhd creation time is zero")
		}
		return time.Unix(int64(ct)-mp4EpochOffset, 0).UTC(), nil
	}
	return time.Time{}, errors.New("mvhd box not found")
}

// quickTimeFields maps the mvhd creation time onto exiftool field names.
// CreateDate is the naive UTC value; CreationDate carries the local offset.
func quickTimeFields(r io.ReadSeeker, loc *time.Location) (map[string]string, error) {
	created, err := mvhdCreationTime(r)
	if err != nil {
		return nil, err
	}
	return map[string]string{
		FieldCreateDate:   created.Format("2006:01:02 15:04:05"),
		FieldCreationDate: created.In(loc).Format("2006:01:02 15:04:05-07:00"),
	}, nil
}
