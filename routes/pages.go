package routes

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/handsup/donation-platform/models"
	"github.com/handsup/donation-platform/services"
)

func (rt *Routes) Index(c *gin.Context) {
	ctx := c.Request.Context()
	campaigns, err := rt.catalog.FeaturedCampaigns(ctx, 6)
	if err != nil {
		rt.serverError(c, err)
		return
	}
	news, err := rt.catalog.LatestNews(ctx, 3)
	if err != nil {
		rt.serverError(c, err)
		return
	}
	rt.html(c, http.StatusOK, "pages/index.html", gin.H{
		"Campaigns": campaigns,
		"News":      news,
	})
}

func (rt *Routes) Campaigns(c *gin.Context) {
	category := c.Query("category")
	if !validCategory(category) {
		category = ""
	}
	page, err := rt.catalog.ListCampaigns(c.Request.Context(), category, queryPage(c))
	if err != nil {
		rt.serverError(c, err)
		return
	}
	rt.html(c, http.StatusOK, "pages/campaigns.html", gin.H{
		"Title":           "Campaigns",
		"Page":            page,
		"Categories":      models.CampaignCategories,
		"CurrentCategory": category,
	})
}

func validCategory(category string) bool {
	for _, c := range models.CampaignCategories {
		if c == category {
			return true
		}
	}
	return false
}

func (rt *Routes) CampaignDetail(c *gin.Context) {
	ctx := c.Request.Context()
	campaign, err := rt.catalog.FindCampaign(ctx, c.Param("id"))
	if err != nil {
		rt.handleLookupError(c, err)
		return
	}
	recent, err := rt.catalog.RecentDonations(ctx, campaign.ID, 5)
	if err != nil {
		rt.serverError(c, err)
		return
	}
	rt.html(c, http.StatusOK, "pages/campaign_detail.html", gin.H{
		"Title":           campaign.Title,
		"Campaign":        campaign,
		"RecentDonations": recent,
	})
}

func (rt *Routes) NewsList(c *gin.Context) {
	page, err := rt.catalog.ListNews(c.Request.Context(), queryPage(c))
	if err != nil {
		rt.serverError(c, err)
		return
	}
	rt.html(c, http.StatusOK, "pages/news.html", gin.H{
		"Title": "News",
		"Page":  page,
	})
}

func (rt *Routes) NewsDetail(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		rt.NotFound(c)
		return
	}
	article, err := rt.catalog.FindNews(c.Request.Context(), id)
	if err != nil {
		rt.handleLookupError(c, err)
		return
	}
	rt.html(c, http.StatusOK, "pages/news_detail.html", gin.H{
		"Title":   article.Title,
		"Article": article,
	})
}

func (rt *Routes) Profile(c *gin.Context) {
	user := currentUser(c)
	donations, err := rt.donations.UserDonations(c.Request.Context(), user.ID)
	if err != nil {
		rt.serverError(c, err)
		return
	}
	rt.html(c, http.StatusOK, "pages/profile.html", gin.H{
		"Title":     "My Profile",
		"Donations": donations,
	})
}

func (rt *Routes) handleLookupError(c *gin.Context, err error) {
	if errors.Is(err, services.ErrNotFound) {
		rt.NotFound(c)
		return
	}
	rt.serverError(c, err)
}

func (rt *Routes) serverError(c *gin.Context, err error) {
	log.Printf("Error handling %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	rt.errorPage(c, http.StatusInternalServerError, "Something went wrong. Please try again later.")
}
