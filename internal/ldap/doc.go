/*
Package ldap provides the Active Directory client used by the adsweep audit
pipeline.

The package is organised into a small number of components:

  - Client: pooled connection management with retry and health checks
  - SRVDiscovery: DNS SRV based domain controller discovery
  - LDAPError: categorised error handling for directory operations
  - GUID/SID/FILETIME helpers for Active Directory attribute encodings

# Connection Management

Connections are pooled with automatic failover across discovered domain
controllers. LDAPS servers are preferred; plain LDAP connections are
upgraded with StartTLS unless TLS is explicitly disabled. Simple bind,
Kerberos (GSSAPI) and external (client certificate) authentication are
supported.

# Error Handling

Directory errors are wrapped in LDAPError, which carries the LDAP result
code, a category (connection, authentication, permission, not_found,
protected, ...) and a retryable classification. The audit pipeline relies
on the category to decide between fatal discovery errors and recoverable
per-item remediation failures.

# Thread Safety

The Client and the pool are safe for concurrent use. The audit pipeline
itself serialises all mutating calls.
*/
package ldap
