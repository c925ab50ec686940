package main

func SetupCommandRegistry() *CommandRegistry {
	r := NewCommandRegistry()

	r.Register("start", &StartCmd{})
	r.Register("history", &HistoryCmd{})
	r.Register("stats", &StatsCmd{})
	r.Register("heartbeat", &HeartbeatCmd{})
	r.Register("help", &HelpCmd{})

	r.RegisterAlias("h", &HistoryCmd{})
	r.RegisterAlias("status", &HeartbeatCmd{})

	return r
}
