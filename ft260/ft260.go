// Package ft260 drives the FTDI FT260 USB-HID to I2C bridge. An opened Ft260 implements
// bus.I2cBus.
package ft260

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/karalabe/hid"
	log "github.com/sirupsen/logrus"
)

const (
	FTDIVendorId   = 0x0403
	FT260ProductId = 0x6030

	DefaultTimeout = 200 * time.Millisecond
)

type Ft260Driver struct {
	Vendor  uint16
	Product uint16
	Path    string        // Optional USB path, otherwise the first device is used
	Timeout time.Duration // Time to wait for the I2C controller to finish a transaction
}

func (d *Ft260Driver) Open() (*Ft260, error) {
	if !hid.Supported() {
		return nil, errors.New("The library github.com/karalabe/hid is not supported on this platform")
	}
	vendor, product := d.Vendor, d.Product
	if vendor == 0 {
		vendor = FTDIVendorId
	}
	if product == 0 {
		product = FT260ProductId
	}
	devices := hid.Enumerate(vendor, product)
	if d.Path != "" {
		var matching []hid.DeviceInfo
		for _, info := range devices {
			if info.Path == d.Path {
				matching = append(matching, info)
			}
		}
		devices = matching
	}
	if len(devices) == 0 {
		return nil, fmt.Errorf("No USB HID device found with vendorID=%04x productID=%04x path=%q", vendor, product, d.Path)
	}
	if len(devices) > 1 {
		log.Warnf("Multiple devices connected with vendorID=%04x productID=%04x, using first", vendor, product)
	}
	info := devices[0]
	log.Printf("Opening USB HID device %v (USB %v): %v (%04x) from %v (%04x), Release %v",
		info.Path, info.Interface, info.Product, info.ProductID, info.Manufacturer, info.VendorID, info.Release)
	dev, err := info.Open()
	if err != nil {
		return nil, err
	}
	timeout := d.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	return &Ft260{
		dev:     dev,
		Timeout: timeout,
	}, nil
}

func Open() (*Ft260, error) {
	return (&Ft260Driver{}).Open()
}

func OpenPath(path string) (*Ft260, error) {
	return (&Ft260Driver{Path: path}).Open()
}

type Ft260 struct {
	Timeout time.Duration

	dev *hid.Device

	// Held for the duration of one I2C transaction, which can span multiple reports
	lock sync.Mutex
}

type ReportIn interface {
	Unmarshall(data []byte) error
	ReportID() byte
	ReportLen() int
}

type ReportOut interface {
	Marshall(data []byte) error
	ReportID() byte
	ReportLen() int
}

func (f *Ft260) Close() error {
	return f.dev.Close()
}

// Write sends the report, prefixed with its report ID
func (f *Ft260) Write(report ReportOut) error {
	data := make([]byte, report.ReportLen()+1)
	data[0] = report.ReportID()
	if err := report.Marshall(data[1:]); err != nil {
		return err
	}
	n, err := f.dev.Write(data)
	if err == nil && n != len(data) {
		err = fmt.Errorf("ft260: wrong write len (%v instead of %v)", n, len(data))
	}
	return err
}

// Read receives one report. The received report ID must match the report, unless the
// report has a variable ID (I2C input reports).
func (f *Ft260) Read(report ReportIn) error {
	data := make([]byte, report.ReportLen()+1)
	data[0] = report.ReportID()
	n, err := f.dev.Read(data)
	if err != nil {
		return err
	}
	if n < 2 {
		return fmt.Errorf("ft260: short read (%v byte)", n)
	}
	if _, variable := report.(*OperationI2cInput); !variable && data[0] != report.ReportID() {
		return fmt.Errorf("Unexpected report id (expected %v, received %v)", report.ReportID(), data[0])
	}
	return report.Unmarshall(data[1:n])
}

// Setup verifies the chip code and configures the system clock and I2C bus frequency in kHz
func (f *Ft260) Setup(i2cFreq uint) error {
	if err := f.ValidateChipCode(); err != nil {
		return err
	}
	if err := f.Configure(i2cFreq); err != nil {
		return err
	}
	return f.Validate(i2cFreq)
}

func (f *Ft260) ValidateChipCode() error {
	var code ReportChipCode
	if err := f.Read(&code); err != nil {
		return err
	}
	if code.ChipCode != FT260_CHIP_CODE {
		return fmt.Errorf("Unexpected chip code %08x (expected %08x)", code.ChipCode, FT260_CHIP_CODE)
	}
	return nil
}

func (f *Ft260) Configure(i2cFreq uint) (err error) {
	if i2cFreq < MinI2cFreq || i2cFreq > MaxI2cFreq {
		return fmt.Errorf("I2C frequency %v kHz out of range (%v - %v)", i2cFreq, MinI2cFreq, MaxI2cFreq)
	}
	f.writeConfigValue(&err, SetSystemSetting_Clock, Clock48MHz)
	f.writeConfigValue(&err, SetSystemSetting_I2CReset, nil) // Reset i2c bus in case it was disturbed
	f.writeConfigValue(&err, SetSystemSetting_I2CSetClock, uint16(i2cFreq))
	f.writeConfigValue(&err, SetSystemSetting_EnableWakeupInt, false)
	return
}

func (f *Ft260) writeConfigValue(outErr *error, request byte, val interface{}) {
	if *outErr == nil {
		*outErr = f.Write(&SetSystemStatus{
			Request: request,
			Value:   val,
		})
	}
}

func (f *Ft260) Validate(i2cFreq uint) error {
	var status ReportSystemStatus
	if err := f.Read(&status); err != nil {
		return err
	}
	if status.Clock != Clock48MHz {
		return fmt.Errorf("FT260: unexpected clock value %02x (expected %02x)", status.Clock, Clock48MHz)
	}
	if status.Suspended {
		return errors.New("FT260: device is suspended")
	}
	if !status.PowerStatus {
		return errors.New("FT260: device is powered off")
	}
	if !status.I2CEnable {
		return errors.New("FT260: I2C is not enabled on the device")
	}

	var i2cStatus ReportI2cStatus
	if err := f.Read(&i2cStatus); err != nil {
		return err
	}
	if i2cStatus.BusSpeed != uint16(i2cFreq) {
		return fmt.Errorf("FT260: unexpected I2C bus speed %v (expected %v)", i2cStatus.BusSpeed, i2cFreq)
	}
	return nil
}
