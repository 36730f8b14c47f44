package pdlog

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/oxplot/go-pdtrigger"
	"github.com/oxplot/go-pdtrigger/pdmsg"
)

type mockSource struct{ mock.Mock }

func (m *mockSource) SetFixedVoltage(mode pdtrigger.Mode) error {
	return m.Called(mode).Error(0)
}

func (m *mockSource) SetPPSVoltage(volts float64) error {
	return m.Called(volts).Error(0)
}

func (m *mockSource) SetAVSVoltage(volts float64) error {
	return m.Called(volts).Error(0)
}

func TestLoggerPassthrough(t *testing.T) {
	src := &mockSource{}
	src.On("SetFixedVoltage", pdtrigger.Mode20V).Return(nil)
	src.On("SetPPSVoltage", 9.0).Return(nil)
	src.On("SetAVSVoltage", 12.5).Return(errors.New("nack"))

	var buf bytes.Buffer
	l := NewLogger(&buf, "\n", src)
	assert.NoError(t, l.SetFixedVoltage(pdtrigger.Mode20V))
	assert.NoError(t, l.SetPPSVoltage(9))
	assert.EqualError(t, l.SetAVSVoltage(12.5), "nack")

	assert.Equal(t, "Requesting mode 20V\n  ok\n"+
		"Requesting PPS 9.0V\n  ok\n"+
		"Requesting AVS 12.5V\n  failed: nack\n", buf.String())
	src.AssertExpectations(t)
}

func TestLoggerWithoutBase(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&buf, "\r\n", nil)
	assert.NoError(t, l.SetFixedVoltage(pdtrigger.ModePPS))
	assert.Equal(t, "Requesting mode PPS\r\n", buf.String())
}

func TestDescribePDOs(t *testing.T) {
	var buf bytes.Buffer
	DescribePDOs(&buf, "\n", []pdmsg.PDO{
		0x0801912c, // fixed 5V 3A
		0,
		0xc9a4213c, // PPS 3.3-21V 3A, power limited
		0xd230968c, // AVS 15-28V 140W
		0x40000000,
	})
	assert.Equal(t, "Received 4 profiles:\n"+
		"  1) Fixed 5.0V @ max. 3.0A\n"+
		"  3) Programmable 3.3-21.0V @ max. 3.0A (power limited)\n"+
		"  4) AVS 15.0-28.0V @ 140W\n"+
		"  5) Battery (not supported)\n", buf.String())
}
