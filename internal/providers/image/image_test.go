package image

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tryon/internal/domain"
	"tryon/internal/generation"
)

type recordingCaller struct {
	mu    sync.Mutex
	calls int
	model string
	args  map[string]any
	resp  map[string]any
}

func (c *recordingCaller) Call(_ context.Context, model string, args map[string]any) (map[string]any, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	c.model = model
	c.args = args
	return c.resp, nil
}

func newRegistry(t *testing.T, resp map[string]any) (*Registry, *recordingCaller) {
	t.Helper()
	caller := &recordingCaller{resp: resp}
	exec, err := generation.NewExecutor(generation.Options{Caller: caller})
	require.NoError(t, err)
	return NewRegistry(exec), caller
}

func TestKeysAreTheClosedSet(t *testing.T) {
	assert.Equal(t, []string{"flux-pro-edit", "kling-image", "nano-banana", "nano-banana-edit", "qwen-edit"}, Keys())
}

func TestLookupUnknownKey(t *testing.T) {
	reg, _ := newRegistry(t, nil)
	_, err := reg.Lookup("dall-e")

	var unknown *domain.UnknownModelError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "dall-e", unknown.Key)
	assert.ErrorIs(t, err, domain.ErrUnknownModel)
}

func TestAdaptersSendEveryResolvedReference(t *testing.T) {
	dir := t.TempDir()
	local := filepath.Join(dir, "face.jpg")
	require.NoError(t, os.WriteFile(local, []byte{0xff, 0xd8, 0xff, 0xe0, 0, 0x10, 'J', 'F', 'I', 'F'}, 0o644))

	refs := domain.ParseReferences([]string{
		"https://cdn.example.com/person.png",
		local,
		"data:image/png;base64,iVBORw0KGgo=",
	})
	resp := map[string]any{
		"images": []any{map[string]any{"url": "https://fal.media/out.png"}},
		"image":  map[string]any{"url": "https://fal.media/out.png"},
	}

	for _, key := range []string{KeyNanoBananaEdit, KeyFluxProEdit, KeyQwenEdit, KeyKlingImage} {
		t.Run(key, func(t *testing.T) {
			reg, caller := newRegistry(t, resp)
			gen, err := reg.Lookup(key)
			require.NoError(t, err)

			res, err := gen.Generate(context.Background(), Request{Prompt: "try on", References: refs}, false)
			require.NoError(t, err)
			assert.Equal(t, []string{"https://fal.media/out.png"}, res.LocalFiles)

			sent, ok := caller.args["image_urls"].([]string)
			require.True(t, ok)
			require.Len(t, sent, 3)
			assert.Equal(t, "https://cdn.example.com/person.png", sent[0])
			assert.True(t, strings.HasPrefix(sent[1], "data:image/jpeg;base64,"), sent[1])
			assert.Equal(t, "data:image/png;base64,iVBORw0KGgo=", sent[2])
			assert.Equal(t, gen.Model(), caller.model)
		})
	}
}

func TestAdapterArguments(t *testing.T) {
	refs := domain.ParseReferences([]string{"https://cdn.example.com/a.png", "https://cdn.example.com/b.png"})
	resp := map[string]any{"images": []any{"https://fal.media/x.png"}}

	tests := []struct {
		key  string
		want map[string]any
	}{
		{KeyNanoBanana, map[string]any{
			"prompt": "p", "resolution": "1024x1024", "aspect_ratio": "1:1", "num_images": 1,
			"image_urls": []string{"https://cdn.example.com/a.png"},
		}},
		{KeyFluxProEdit, map[string]any{
			"image_size": "square_hd", "safety_tolerance": "2", "enable_safety_checker": false, "output_format": "png",
		}},
		{KeyQwenEdit, map[string]any{
			"negative_prompt": qwenNegativePrompt, "enable_prompt_expansion": false, "num_images": 1,
		}},
		{KeyKlingImage, map[string]any{
			"resolution": "1K", "aspect_ratio": "auto", "result_type": "single",
		}},
	}
	for _, tc := range tests {
		t.Run(tc.key, func(t *testing.T) {
			reg, caller := newRegistry(t, resp)
			gen, err := reg.Lookup(tc.key)
			require.NoError(t, err)
			_, err = gen.Generate(context.Background(), Request{Prompt: "p", References: refs}, false)
			require.NoError(t, err)
			for k, v := range tc.want {
				assert.Equal(t, v, caller.args[k], k)
			}
		})
	}
}

func TestNanoBananaWithoutReferences(t *testing.T) {
	reg, caller := newRegistry(t, map[string]any{"images": []any{"https://fal.media/x.png"}})
	gen, err := reg.Lookup(KeyNanoBanana)
	require.NoError(t, err)

	_, err = gen.Generate(context.Background(), Request{Prompt: "studio portrait"}, false)
	require.NoError(t, err)
	_, has := caller.args["image_urls"]
	assert.False(t, has)
}

func TestValidationHappensBeforeTheCall(t *testing.T) {
	tests := []struct {
		name string
		key  string
		req  Request
	}{
		{"blank prompt", KeyNanoBanana, Request{Prompt: "  "}},
		{"too many images", KeyNanoBanana, Request{Prompt: "p", NumImages: 5}},
		{"edit without references", KeyNanoBananaEdit, Request{Prompt: "p"}},
		{"flux without references", KeyFluxProEdit, Request{Prompt: "p"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			reg, caller := newRegistry(t, nil)
			gen, err := reg.Lookup(tc.key)
			require.NoError(t, err)
			_, err = gen.Generate(context.Background(), tc.req, false)
			assert.ErrorIs(t, err, domain.ErrValidation)
			assert.Zero(t, caller.calls)
		})
	}
}

func TestImageSize(t *testing.T) {
	tests := []struct {
		aspect, resolution, want string
	}{
		{"1:1", "", "square_hd"},
		{"16:9", "", "landscape_16_9"},
		{"9:16", "", "portrait_16_9"},
		{"4:3", "", "landscape_4_3"},
		{"3:4", "", "portrait_4_3"},
		{"3:2", "", "landscape_4_3"},
		{"21:9", "", "auto"},
		{"", "1920x1080", "landscape_16_9"},
		{"bogus", "1024X1024", "square_hd"},
		{"", "", "auto"},
		{"0:1", "wide", "auto"},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, imageSize(tc.aspect, tc.resolution), "%q/%q", tc.aspect, tc.resolution)
	}
}

func TestMetadataSummarizesInlineReferences(t *testing.T) {
	refs := domain.ParseReferences([]string{"https://cdn.example.com/a.png", "data:image/png;base64,AAAA"})
	assert.Equal(t, []string{"https://cdn.example.com/a.png", "data:image/png;base64,<4 bytes>"}, describeReferences(refs))
	assert.Nil(t, describeReferences(nil))
}
