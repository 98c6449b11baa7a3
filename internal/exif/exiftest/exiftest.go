// Package exiftest builds JPEG fixtures carrying EXIF camera, timestamp and GPS tags.
package exiftest

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/jpeg"
	"math"
)

// Tags describes the tags to embed. Empty strings and nil coordinates are omitted.
type Tags struct {
	Make, Model, Software      string
	DateTime, DateTimeOriginal string
	Lat, Lng                   *float64
}

const (
	typeASCII    = 2
	typeLong     = 4
	typeRational = 5

	tagMake             = 0x010F
	tagModel            = 0x0110
	tagSoftware         = 0x0131
	tagDateTime         = 0x0132
	tagExifPointer      = 0x8769
	tagGPSPointer       = 0x8825
	tagDateTimeOriginal = 0x9003
	tagGPSLatRef        = 0x0001
	tagGPSLat           = 0x0002
	tagGPSLngRef        = 0x0003
	tagGPSLng           = 0x0004
)

type entry struct {
	tag   uint16
	typ   uint16
	count uint32
	data  []byte
}

func ascii(tag uint16, v string) entry {
	b := append([]byte(v), 0)
	return entry{tag: tag, typ: typeASCII, count: uint32(len(b)), data: b}
}

func long(tag uint16, v uint32) entry {
	return entry{tag: tag, typ: typeLong, count: 1, data: binary.LittleEndian.AppendUint32(nil, v)}
}

// rationals encodes a decimal coordinate as degrees, minutes and milli-seconds.
func rationals(tag uint16, v float64) entry {
	v = math.Abs(v)
	deg := math.Floor(v)
	minutes := math.Floor((v - deg) * 60)
	seconds := ((v-deg)*60 - minutes) * 60
	parts := [3][2]uint32{
		{uint32(deg), 1},
		{uint32(minutes), 1},
		{uint32(math.Round(seconds * 1000)), 1000},
	}
	b := make([]byte, 0, 24)
	for _, r := range parts {
		b = binary.LittleEndian.AppendUint32(b, r[0])
		b = binary.LittleEndian.AppendUint32(b, r[1])
	}
	return entry{tag: tag, typ: typeRational, count: 3, data: b}
}

func ifdSize(entries []entry) uint32 {
	size := uint32(2 + 12*len(entries) + 4)
	for _, e := range entries {
		if len(e.data) > 4 {
			size += uint32(len(e.data) + len(e.data)%2)
		}
	}
	return size
}

func encodeIFD(entries []entry, base uint32) []byte {
	out := binary.LittleEndian.AppendUint16(nil, uint16(len(entries)))
	dataOff := base + uint32(2+12*len(entries)+4)
	var data []byte
	for _, e := range entries {
		out = binary.LittleEndian.AppendUint16(out, e.tag)
		out = binary.LittleEndian.AppendUint16(out, e.typ)
		out = binary.LittleEndian.AppendUint32(out, e.count)
		if len(e.data) <= 4 {
			v := make([]byte, 4)
			copy(v, e.data)
			out = append(out, v...)
			continue
		}
		out = binary.LittleEndian.AppendUint32(out, dataOff+uint32(len(data)))
		data = append(data, e.data...)
		if len(e.data)%2 == 1 {
			data = append(data, 0)
		}
	}
	out = binary.LittleEndian.AppendUint32(out, 0)
	return append(out, data...)
}

// TIFF returns the little-endian TIFF block for tags.
func TIFF(tags Tags) []byte {
	var ifd0, exifIFD, gpsIFD []entry
	for _, t := range []struct {
		tag uint16
		v   string
	}{{tagMake, tags.Make}, {tagModel, tags.Model}, {tagSoftware, tags.Software}, {tagDateTime, tags.DateTime}} {
		if t.v != "" {
			ifd0 = append(ifd0, ascii(t.tag, t.v))
		}
	}
	if tags.DateTimeOriginal != "" {
		exifIFD = append(exifIFD, ascii(tagDateTimeOriginal, tags.DateTimeOriginal))
	}
	if tags.Lat != nil && tags.Lng != nil {
		latRef, lngRef := "N", "E"
		if *tags.Lat < 0 {
			latRef = "S"
		}
		if *tags.Lng < 0 {
			lngRef = "W"
		}
		gpsIFD = append(gpsIFD,
			ascii(tagGPSLatRef, latRef),
			rationals(tagGPSLat, *tags.Lat),
			ascii(tagGPSLngRef, lngRef),
			rationals(tagGPSLng, *tags.Lng),
		)
	}

	// Pointer entries are fixed-size, so offsets are known before encoding.
	if len(exifIFD) > 0 {
		ifd0 = append(ifd0, long(tagExifPointer, 0))
	}
	if len(gpsIFD) > 0 {
		ifd0 = append(ifd0, long(tagGPSPointer, 0))
	}
	const ifd0Offset = 8
	exifOffset := ifd0Offset + ifdSize(ifd0)
	gpsOffset := exifOffset
	if len(exifIFD) > 0 {
		gpsOffset += ifdSize(exifIFD)
	}
	for i := range ifd0 {
		switch ifd0[i].tag {
		case tagExifPointer:
			ifd0[i] = long(tagExifPointer, exifOffset)
		case tagGPSPointer:
			ifd0[i] = long(tagGPSPointer, gpsOffset)
		}
	}

	out := []byte{'I', 'I', 42, 0}
	out = binary.LittleEndian.AppendUint32(out, ifd0Offset)
	out = append(out, encodeIFD(ifd0, ifd0Offset)...)
	if len(exifIFD) > 0 {
		out = append(out, encodeIFD(exifIFD, exifOffset)...)
	}
	if len(gpsIFD) > 0 {
		out = append(out, encodeIFD(gpsIFD, gpsOffset)...)
	}
	return out
}

// JPEG returns a small JPEG with an APP1 EXIF segment built from tags.
func JPEG(tags Tags) ([]byte, error) {
	return JPEGFrom(image.NewRGBA(image.Rect(0, 0, 8, 8)), tags)
}

// JPEGFrom encodes img and inserts an APP1 EXIF segment built from tags.
func JPEGFrom(img image.Image, tags Tags) ([]byte, error) {
	var body bytes.Buffer
	if err := jpeg.Encode(&body, img, &jpeg.Options{Quality: 90}); err != nil {
		return nil, err
	}
	encoded := body.Bytes()

	app1 := append([]byte("Exif\x00\x00"), TIFF(tags)...)
	var out bytes.Buffer
	out.Write([]byte{0xFF, 0xD8, 0xFF, 0xE1})
	out.Write(binary.BigEndian.AppendUint16(nil, uint16(len(app1)+2)))
	out.Write(app1)
	out.Write(encoded[2:])
	return out.Bytes(), nil
}

// Float returns a pointer to v.
func Float(v float64) *float64 { return &v }
