// This source form is governed by the GNU General Public License v3.0 (or
// later). See <https://www.gnu.org/licenses/> for the full text.

package blep

import (
	"io"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/zxula/spectrumcore/errors"
)

// pcmFormat is the WAV format tag for linear PCM.
const pcmFormat = 1

// WriteWAV encodes channels of normalized [-1, 1] samples as a 16-bit PCM
// WAV file, interleaving them in channel order. Every channel must carry
// the same sample count. It exists for golden-file test fixtures and for
// cmd/bootcheck's -dump-audio flag, not for real-time playback — an
// emulator host wanting live audio drives its own device from SumAs
// directly.
func WriteWAV(w io.WriteSeeker, sampleRate int, channels [][]float64) error {
	if len(channels) == 0 {
		return errors.Errorf(errors.FormatMalformed, "no channels to write")
	}
	frames := len(channels[0])
	for _, ch := range channels {
		if len(ch) != frames {
			return errors.Errorf(errors.FormatMalformed, "channel length mismatch")
		}
	}

	buf := &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: len(channels),
			SampleRate:  sampleRate,
		},
		Data:           make([]int, frames*len(channels)),
		SourceBitDepth: 16,
	}
	for i := 0; i < frames; i++ {
		for c, ch := range channels {
			buf.Data[i*len(channels)+c] = int(ToInt16(ch[i]))
		}
	}

	enc := wav.NewEncoder(w, sampleRate, 16, len(channels), pcmFormat)
	if err := enc.Write(buf); err != nil {
		return errors.Errorf(errors.HostIo, err)
	}
	if err := enc.Close(); err != nil {
		return errors.Errorf(errors.HostIo, err)
	}
	return nil
}
