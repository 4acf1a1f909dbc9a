// adsweep audits an Active Directory domain for inactive users and
// computers, empty groups, and empty organizational units. Each run writes
// a CSV report and can optionally disable or delete what it found.
//
// Usage:
//
//	# Report enabled users that have not logged on for 90 days
//	adsweep users
//
//	# Report, then disable, computers stale for 180 days under one OU
//	adsweep computers --days 180 --search-base "OU=Workstations,DC=example,DC=com" --disable
//
//	# Delete empty groups, writing the report to a custom directory
//	adsweep groups --report /srv/audit --delete
//
//	# Report empty organizational units
//	adsweep ous
package main

func main() {
	Execute()
}
