package services_test

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"image/color"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/garbage_complaint/internal/models"
)

type MockComplaintRepository struct {
	mock.Mock
}

func (m *MockComplaintRepository) EnsureSchema() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockComplaintRepository) Insert(complaint *models.Complaint) (int64, error) {
	args := m.Called(complaint)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockComplaintRepository) ListAll() ([]models.Complaint, error) {
	args := m.Called()
	rows, _ := args.Get(0).([]models.Complaint)
	return rows, args.Error(1)
}

func (m *MockComplaintRepository) Count() (int64, error) {
	args := m.Called()
	return args.Get(0).(int64), args.Error(1)
}

type MockImageStore struct {
	mock.Mock
}

func (m *MockImageStore) Save(timestamp, filename string, data []byte) (string, error) {
	args := m.Called(timestamp, filename, data)
	return args.String(0), args.Error(1)
}

// jpegFixture encodes a small solid-colour JPEG padded with zero bytes after the EOI marker
// to about 10KB.
func jpegFixture(t *testing.T) []byte {
	t.Helper()
	img := imaging.New(160, 120, color.NRGBA{R: 90, G: 140, B: 60, A: 255})
	var buf bytes.Buffer
	require.NoError(t, imaging.Encode(&buf, img, imaging.JPEG))
	for buf.Len() < 10*1024 {
		buf.WriteByte(0)
	}
	return buf.Bytes()
}

func pngFixture(t *testing.T) []byte {
	t.Helper()
	img := imaging.New(32, 32, color.NRGBA{R: 200, A: 255})
	var buf bytes.Buffer
	require.NoError(t, imaging.Encode(&buf, img, imaging.PNG))
	return buf.Bytes()
}

// hugeHeaderPNG is a tiny PNG whose IHDR claims width x height pixels.
func hugeHeaderPNG(t *testing.T, width, height uint32) []byte {
	t.Helper()
	img := imaging.New(1, 1, color.NRGBA{A: 255})
	var buf bytes.Buffer
	require.NoError(t, imaging.Encode(&buf, img, imaging.PNG))
	data := buf.Bytes()

	// 8-byte signature, 4-byte length, "IHDR", then width and height.
	require.Equal(t, "IHDR", string(data[12:16]))
	binary.BigEndian.PutUint32(data[16:20], width)
	binary.BigEndian.PutUint32(data[20:24], height)
	binary.BigEndian.PutUint32(data[29:33], crc32.ChecksumIEEE(data[12:29]))
	return data
}
