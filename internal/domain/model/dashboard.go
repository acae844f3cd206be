package model

// DashboardStats are the headline counters shown to admins.
type DashboardStats struct {
	Users     int
	Policies  int
	Documents int
}

// Dashboard is everything the dashboard page renders.
type Dashboard struct {
	Stats        DashboardStats
	Counts       PolicyCounts
	ExpiringSoon []Policy
}
