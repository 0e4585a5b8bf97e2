package tts

import (
	"context"
	"errors"

	texttospeech "cloud.google.com/go/texttospeech/apiv1"
	"cloud.google.com/go/texttospeech/apiv1/texttospeechpb"
	"github.com/yoockh/floorscreen/internal/interview"
)

type GoogleTTS struct {
	c      *texttospeech.Client
	voices map[interview.Language]string
}

// NewGoogleTTS uses voiceEN / voiceES as the voice names per language.
func NewGoogleTTS(ctx context.Context, voiceEN, voiceES string) (*GoogleTTS, error) {
	c, err := texttospeech.NewClient(ctx)
	if err != nil {
		return nil, err
	}
	return &GoogleTTS{c: c, voices: map[interview.Language]string{
		interview.English: voiceEN,
		interview.Spanish: voiceES,
	}}, nil
}

func (g *GoogleTTS) Close() error { return g.c.Close() }

func (g *GoogleTTS) Synthesize(ctx context.Context, text string, lang interview.Language) ([]byte, error) {
	if text == "" {
		return nil, errors.New("tts: empty text")
	}
	locale := "en-US"
	if lang == interview.Spanish {
		locale = "es-US"
	}

	resp, err := g.c.SynthesizeSpeech(ctx, &texttospeechpb.SynthesizeSpeechRequest{
		Input: &texttospeechpb.SynthesisInput{
			InputSource: &texttospeechpb.SynthesisInput_Text{Text: text},
		},
		Voice: &texttospeechpb.VoiceSelectionParams{
			LanguageCode: locale,
			Name:         g.voices[lang],
		},
		AudioConfig: &texttospeechpb.AudioConfig{
			AudioEncoding: texttospeechpb.AudioEncoding_MP3,
			SpeakingRate:  1.0,
		},
	})
	if err != nil {
		return nil, err
	}
	return resp.AudioContent, nil
}
