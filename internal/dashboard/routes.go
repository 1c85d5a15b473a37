package dashboard

import (
	"net/http"

	"github.com/harunnryd/solace/internal/chain"
	solaceErrors "github.com/harunnryd/solace/internal/errors"

	"github.com/gin-gonic/gin"
)

func newRouter(deps Deps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/healthz", handleHealth())
	router.GET("/api/identity", handleIdentity(deps.Identity))
	router.GET("/api/chains", handleChains(deps.Identity, deps.Chains))
	router.GET("/api/view", handleView(deps.Identity, deps.Viewer))
	return router
}

func handleHealth() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}

// handleIdentity never includes tokens.
func handleIdentity(ids IdentitySource) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity := ids.Identity()
		c.JSON(http.StatusOK, gin.H{
			"authenticated": ids.IsAuthenticated(),
			"employee_id":   identity.EmployeeID,
			"role":          identity.Role,
		})
	}
}

func handleChains(ids IdentitySource, lister ChainLister) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !requireAuth(c, ids) {
			return
		}
		chains, err := lister.ListChains(c.Request.Context())
		if err != nil {
			c.JSON(statusFor(err), gin.H{"error": solaceErrors.UserMessage(err)})
			return
		}
		c.JSON(http.StatusOK, gin.H{"chains": chain.SortChainsByCreation(chains)})
	}
}

func handleView(ids IdentitySource, viewer Viewer) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !requireAuth(c, ids) {
			return
		}
		target := chain.ParseTarget(c.Query("target"))
		c.JSON(http.StatusOK, viewer.Reconcile(c.Request.Context(), target))
	}
}

func requireAuth(c *gin.Context, ids IdentitySource) bool {
	if ids.IsAuthenticated() {
		return true
	}
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "not signed in"})
	return false
}

func statusFor(err error) int {
	switch {
	case solaceErrors.IsCategory(err, solaceErrors.ErrAuth):
		return http.StatusUnauthorized
	case solaceErrors.IsCategory(err, solaceErrors.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusBadGateway
	}
}
