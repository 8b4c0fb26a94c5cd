package sound

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBellEmiteCampana(t *testing.T) {
	var buf bytes.Buffer
	b := &Bell{Out: &buf, Enabled: true}

	b.CriticalAlert()
	b.CriticalAlert()
	assert.Equal(t, "\a\a", buf.String())
}

func TestBellDeshabilitadaCalla(t *testing.T) {
	var buf bytes.Buffer
	b := &Bell{Out: &buf, Enabled: false}

	b.CriticalAlert()
	assert.Empty(t, buf.String())
}

func TestNopNoHaceNada(t *testing.T) {
	var s Sounder = Nop{}
	s.CriticalAlert()
}
