package stt

import (
	"context"
	"strings"

	speech "cloud.google.com/go/speech/apiv1"
	speechpb "cloud.google.com/go/speech/apiv1/speechpb"
)

type GoogleSpeech struct {
	c *speech.Client

	Encoding     speechpb.RecognitionConfig_AudioEncoding
	SampleRateHz int32
}

func NewGoogleSpeech(ctx context.Context) (*GoogleSpeech, error) {
	c, err := speech.NewClient(ctx)
	if err != nil {
		return nil, err
	}
	return &GoogleSpeech{
		c:            c,
		Encoding:     speechpb.RecognitionConfig_LINEAR16,
		SampleRateHz: 16000,
	}, nil
}

func (g *GoogleSpeech) Close() error { return g.c.Close() }

// Transcribe decodes audio with the configured default encoding.
func (g *GoogleSpeech) Transcribe(ctx context.Context, audio []byte, language string) (string, float64, error) {
	return g.recognize(ctx, audio, g.Encoding, g.SampleRateHz, language)
}

func (g *GoogleSpeech) TranscribeAs(ctx context.Context, audio []byte, contentType, language string) (string, float64, error) {
	enc, rate := EncodingFor(contentType)
	if enc == speechpb.RecognitionConfig_ENCODING_UNSPECIFIED {
		enc, rate = g.Encoding, g.SampleRateHz
	}
	return g.recognize(ctx, audio, enc, rate, language)
}

// EncodingFor returns the recognizer settings for a recording content type.
// A zero sample rate lets the service read it from the container header.
func EncodingFor(contentType string) (speechpb.RecognitionConfig_AudioEncoding, int32) {
	ct := strings.ToLower(contentType)
	switch {
	case strings.Contains(ct, "webm"):
		return speechpb.RecognitionConfig_WEBM_OPUS, 48000
	case strings.Contains(ct, "ogg"):
		return speechpb.RecognitionConfig_OGG_OPUS, 48000
	case strings.Contains(ct, "flac"):
		return speechpb.RecognitionConfig_FLAC, 0
	case strings.Contains(ct, "wav"):
		return speechpb.RecognitionConfig_LINEAR16, 0
	default:
		return speechpb.RecognitionConfig_ENCODING_UNSPECIFIED, 0
	}
}

func (g *GoogleSpeech) recognize(ctx context.Context, audio []byte, enc speechpb.RecognitionConfig_AudioEncoding, rate int32, language string) (string, float64, error) {
	resp, err := g.c.Recognize(ctx, &speechpb.RecognizeRequest{
		Config: &speechpb.RecognitionConfig{
			Encoding:                   enc,
			SampleRateHertz:            rate,
			LanguageCode:               NormalizeLanguage(language),
			EnableAutomaticPunctuation: true,
		},
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{Content: audio},
		},
	})
	if err != nil {
		return "", 0, err
	}

	// join the best alternative of every result; confidence is their mean
	var (
		parts []string
		conf  float64
	)
	for _, r := range resp.Results {
		if len(r.Alternatives) == 0 || r.Alternatives[0].Transcript == "" {
			continue
		}
		alt := r.Alternatives[0]
		parts = append(parts, strings.TrimSpace(alt.Transcript))
		conf += float64(alt.Confidence)
	}
	if len(parts) == 0 {
		return "", 0, nil
	}
	return strings.Join(parts, " "), conf / float64(len(parts)), nil
}
