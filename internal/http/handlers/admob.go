package handlers

import "net/http"

type adMobConfig struct {
	AppAdID          string `json:"APP_AD_ID"`
	BannerAdUnitID   string `json:"Banner_AD_UNIT_ID"`
	RewardedAdUnitID string `json:"REWARDED_AD_UNIT_ID"`
}

// Google's published sample ad units, safe for development builds.
var adMobTestConfig = adMobConfig{
	AppAdID:          "ca-app-pub-3940256099942544~3347511713",
	BannerAdUnitID:   "ca-app-pub-3940256099942544/6300978111",
	RewardedAdUnitID: "ca-app-pub-3940256099942544/5224354917",
}

// AdMob returns the ad unit IDs the mobile client should load: the real
// units when real serving is enabled and fully configured, the Google test
// units otherwise.
func (a *App) AdMob(w http.ResponseWriter, r *http.Request) {
	cfg := adMobTestConfig
	if a.Config != nil && a.Config.AdMobServeReal &&
		a.Config.AdMobAppID != "" && a.Config.AdMobBannerUnitID != "" && a.Config.AdMobRewardedUnitID != "" {
		cfg = adMobConfig{
			AppAdID:          a.Config.AdMobAppID,
			BannerAdUnitID:   a.Config.AdMobBannerUnitID,
			RewardedAdUnitID: a.Config.AdMobRewardedUnitID,
		}
	}
	a.json(w, http.StatusOK, cfg)
}
