package rest

import (
	"net/http"

	"github.com/KevinKickass/VirtualSpectrometer/internal/types"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// GET /api/v1/profiles
func (s *Server) listProfiles(c *gin.Context) {
	manager := s.lm.DeviceManager()

	names, err := manager.Profiles()
	if err != nil {
		respondError(c, types.ErrCodeInternal, "Failed to list profiles", err.Error())
		return
	}

	profiles := make([]gin.H, 0, len(names))
	for _, name := range names {
		profile, err := manager.Profile(name)
		if err != nil {
			s.logger.Warn("Skipping invalid profile",
				zap.String("profile", name),
				zap.Error(err))
			continue
		}
		profiles = append(profiles, gin.H{
			"name":       name,
			"id":         profile.DeviceProfile.ID,
			"vendor":     profile.DeviceProfile.Vendor,
			"model":      profile.DeviceProfile.Model,
			"vendor_id":  profile.USB.VendorID,
			"product_id": profile.USB.ProductID,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"profiles": profiles,
		"count":    len(profiles),
	})
}

// GET /api/v1/profiles/:name
func (s *Server) getProfile(c *gin.Context) {
	name := c.Param("name")

	profile, err := s.lm.DeviceManager().Profile(name)
	if err != nil {
		respondError(c, types.ErrCodeNotFound, "Profile not found", err.Error())
		return
	}

	c.JSON(http.StatusOK, profile)
}
