package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"

	"github.com/cnvrt/gemini-edit-image/internal/infra"
)

func adMobResponse(t *testing.T, cfg *infra.Config) adMobConfig {
	t.Helper()
	app := NewApp(nil, nil, nil, nil, cfg, zerolog.New(io.Discard))
	rec := httptest.NewRecorder()
	app.AdMob(rec, httptest.NewRequest(http.MethodGet, "/api/admob", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var got adMobConfig
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return got
}

func TestAdMobDefaultsToTestUnits(t *testing.T) {
	got := adMobResponse(t, &infra.Config{})
	if got != adMobTestConfig {
		t.Fatalf("config = %#v, want Google test units", got)
	}
}

func TestAdMobRealUnitsRequireFullConfig(t *testing.T) {
	// Real serving enabled but one unit missing: stay on test units.
	got := adMobResponse(t, &infra.Config{
		AdMobServeReal:    true,
		AdMobAppID:        "ca-app-pub-1~1",
		AdMobBannerUnitID: "ca-app-pub-1/2",
	})
	if got != adMobTestConfig {
		t.Fatalf("partial config must fall back to test units, got %#v", got)
	}
}

func TestAdMobServesRealUnits(t *testing.T) {
	got := adMobResponse(t, &infra.Config{
		AdMobServeReal:      true,
		AdMobAppID:          "ca-app-pub-1~1",
		AdMobBannerUnitID:   "ca-app-pub-1/2",
		AdMobRewardedUnitID: "ca-app-pub-1/3",
	})
	want := adMobConfig{
		AppAdID:          "ca-app-pub-1~1",
		BannerAdUnitID:   "ca-app-pub-1/2",
		RewardedAdUnitID: "ca-app-pub-1/3",
	}
	if got != want {
		t.Fatalf("config = %#v, want real units", got)
	}
}
