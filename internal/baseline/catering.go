package baseline

import "github.com/oliveandembers/backoffice-api/internal/models"

// Source names for the compiled-in catering baselines.
const (
	SourcePricing     = "pricing"
	SourceTravel      = "travel"
	SourceBooking     = "booking"
	SourceFeatures    = "features"
	SourceAI          = "ai"
	SourceEnvironment = "environment"
	SourceMonitoring  = "monitoring"
)

// CateringProviders returns the code-declared baselines for every business
// variable source. Sources listed in partialSources only declare a subset of
// their keys and are excluded from removal reporting.
func CateringProviders(partialSources []string) []Provider {
	partial := make(map[string]bool, len(partialSources))
	for _, s := range partialSources {
		partial[s] = true
	}
	complete := func(source string) bool { return !partial[source] }

	return []Provider{
		NewStaticProvider(SourcePricing, complete(SourcePricing), []models.BaselineEntry{
			entry(models.CategoryPricing, "BASE_PRICE_PER_PERSON", models.VariableTypeNumber, "75", "Base menu price per guest in USD"),
			entry(models.CategoryPricing, "APPETIZER_SURCHARGE_PER_PERSON", models.VariableTypeNumber, "12.5", "Per-guest surcharge for the appetizer course"),
			entry(models.CategoryPricing, "DESSERT_SURCHARGE_PER_PERSON", models.VariableTypeNumber, "9", "Per-guest surcharge for the dessert course"),
			entry(models.CategoryPricing, "STAFFING_RATE_PER_HOUR", models.VariableTypeNumber, "38", "Hourly rate per service staff member"),
			entry(models.CategoryPricing, "WEEKEND_MULTIPLIER", models.VariableTypeNumber, "1.15", "Price multiplier for Friday-Sunday events"),
			entry(models.CategoryDeposit, "DEPOSIT_PERCENT", models.VariableTypeNumber, "25", "Deposit due at booking as percent of the quote"),
			entry(models.CategoryDeposit, "DEPOSIT_MINIMUM", models.VariableTypeNumber, "250", "Minimum deposit in USD regardless of quote size"),
			entry(models.CategoryDeposit, "REFUND_WINDOW_DAYS", models.VariableTypeNumber, "14", "Days before the event a deposit stays refundable"),
		}),
		NewStaticProvider(SourceTravel, complete(SourceTravel), []models.BaselineEntry{
			entry(models.CategoryTravel, "TRAVEL_FEE_PER_MILE", models.VariableTypeNumber, "2.25", "Per-mile travel fee beyond the free radius"),
			entry(models.CategoryTravel, "FREE_TRAVEL_RADIUS_MILES", models.VariableTypeNumber, "20", "Radius around the kitchen with no travel fee"),
			entry(models.CategoryTravel, "MAX_TRAVEL_MILES", models.VariableTypeNumber, "120", "Farthest distance the crew will serve"),
		}),
		NewStaticProvider(SourceBooking, complete(SourceBooking), []models.BaselineEntry{
			entry(models.CategoryBooking, "MIN_GUEST_COUNT", models.VariableTypeNumber, "20", "Smallest party size accepted online"),
			entry(models.CategoryBooking, "MAX_GUEST_COUNT", models.VariableTypeNumber, "400", "Largest party size accepted online"),
			entry(models.CategoryBooking, "LEAD_TIME_DAYS", models.VariableTypeNumber, "10", "Minimum days between booking and event date"),
			entry(models.CategoryBooking, "TASTING_FEE", models.VariableTypeNumber, "95", "Flat fee for a pre-event tasting session"),
		}),
		NewStaticProvider(SourceFeatures, complete(SourceFeatures), []models.BaselineEntry{
			entry(models.CategoryFeature, "ONLINE_BOOKING_ENABLED", models.VariableTypeBoolean, "true", "Expose the self-service booking flow"),
			entry(models.CategoryFeature, "SEASONAL_MENU_BANNER", models.VariableTypeBoolean, "false", "Show the seasonal menu banner on the site"),
			entry(models.CategoryFeature, "GIFT_CARDS_ENABLED", models.VariableTypeBoolean, "false", "Sell gift cards through the storefront"),
		}),
		NewStaticProvider(SourceAI, complete(SourceAI), []models.BaselineEntry{
			entry(models.CategoryAI, "MENU_COPY_MODEL", models.VariableTypeString, "gpt-4o-mini", "Model used by the menu description generator"),
			entry(models.CategoryAI, "MENU_COPY_MAX_TOKENS", models.VariableTypeNumber, "400", "Token cap per generated menu description"),
		}),
		NewStaticProvider(SourceEnvironment, complete(SourceEnvironment), []models.BaselineEntry{
			entry(models.CategoryEnvironment, "PUBLIC_SITE_URL", models.VariableTypeString, "https://oliveandembers.com", "Canonical URL of the marketing site"),
			entry(models.CategoryEnvironment, "BOOKING_NOTIFY_EMAIL", models.VariableTypeString, "events@oliveandembers.com", "Inbox notified on new booking requests"),
			entry(models.CategoryEnvironment, "MAINTENANCE_MODE", models.VariableTypeBoolean, "false", "Serve the maintenance page instead of the site"),
		}),
		NewStaticProvider(SourceMonitoring, complete(SourceMonitoring), []models.BaselineEntry{
			entry(models.CategoryMonitoring, "ERROR_ALERT_THRESHOLD", models.VariableTypeNumber, "25", "5xx responses per hour before alerting"),
			entry(models.CategoryMonitoring, "SLOW_REQUEST_MS", models.VariableTypeNumber, "1500", "Latency above which a request is logged as slow"),
		}),
	}
}

func entry(category models.VariableCategory, key string, t models.VariableType, value, description string) models.BaselineEntry {
	return models.BaselineEntry{
		Category:    category,
		Key:         key,
		Value:       value,
		Type:        t,
		Description: description,
	}
}
