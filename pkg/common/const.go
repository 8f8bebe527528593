package common

const (
	KEY_LAST_STOCK_PRICE  = "last_stock_price:%s"
	KEY_LAST_OPTION_QUOTE = "last_option_quote:%s"
	KEY_UPCOMING_EVENTS   = "upcoming_events"
)

const (
	KEY_LOG_HOOK_SEND_ALERT = "send_alert"
)
