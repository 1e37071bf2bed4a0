package stt

import (
	"testing"

	speechpb "cloud.google.com/go/speech/apiv1/speechpb"
	"github.com/stretchr/testify/assert"
)

func TestEncodingFor(t *testing.T) {
	cases := map[string]speechpb.RecognitionConfig_AudioEncoding{
		"audio/webm;codecs=opus": speechpb.RecognitionConfig_WEBM_OPUS,
		"audio/ogg":              speechpb.RecognitionConfig_OGG_OPUS,
		"audio/flac":             speechpb.RecognitionConfig_FLAC,
		"audio/wav":              speechpb.RecognitionConfig_LINEAR16,
		"audio/x-wav":            speechpb.RecognitionConfig_LINEAR16,
		"application/octet":      speechpb.RecognitionConfig_ENCODING_UNSPECIFIED,
	}
	for ct, want := range cases {
		got, _ := EncodingFor(ct)
		assert.Equal(t, want, got, ct)
	}
}

func TestNormalizeLanguage(t *testing.T) {
	assert.Equal(t, "en-US", NormalizeLanguage(""))
	assert.Equal(t, "en-US", NormalizeLanguage("en"))
	assert.Equal(t, "id-ID", NormalizeLanguage(" id "))
	assert.Equal(t, "fr-FR", NormalizeLanguage("fr-FR"))
}
