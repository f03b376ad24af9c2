package camera

import (
	"fmt"
	"sync"

	"gocv.io/x/gocv"
)

// Device wraps an exclusively-owned capture device. The handle must be
// released with Close on every exit path, or the camera stays locked for
// every other process on the machine.
type Device struct {
	mu    sync.Mutex
	cap   *gocv.VideoCapture
	frame gocv.Mat
}

// Open acquires the capture device with the given index.
func Open(deviceID int) (*Device, error) {
	cap, err := gocv.OpenVideoCapture(deviceID)
	if err != nil {
		return nil, fmt.Errorf("failed to open capture device %d: %w", deviceID, err)
	}

	return &Device{
		cap:   cap,
		frame: gocv.NewMat(),
	}, nil
}

// Grab captures one still frame at the device's current resolution and
// returns it as JPEG bytes with its pixel dimensions. A device that is not
// producing frames yet reports zero dimensions and no error.
func (d *Device) Grab() ([]byte, int, int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.cap == nil {
		return nil, 0, 0, fmt.Errorf("capture device is closed")
	}

	if ok := d.cap.Read(&d.frame); !ok {
		return nil, 0, 0, fmt.Errorf("failed to read frame from device")
	}

	if d.frame.Empty() {
		return nil, 0, 0, nil
	}

	buf, err := gocv.IMEncode(".jpg", d.frame)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("failed to encode frame: %w", err)
	}
	defer buf.Close()

	data := make([]byte, len(buf.GetBytes()))
	copy(data, buf.GetBytes())

	return data, d.frame.Cols(), d.frame.Rows(), nil
}

// Close releases the device and its frame buffer. Safe to call more than
// once.
func (d *Device) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.cap == nil {
		return nil
	}

	err := d.cap.Close()
	d.frame.Close()
	d.cap = nil

	return err
}
