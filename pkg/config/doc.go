// Package config defines the configuration of a contractmock process.
//
// A configuration file is YAML:
//
//	server:
//	  hostname: 127.0.0.1
//	  port: 0                # 0 picks an ephemeral port
//	  scheme: https
//	  tls:
//	    certFile: server.crt
//	    keyFile: server.key
//	    keyPassphrase: changeit
//	  shutdownTimeout: 20s
//	  substituteHosts: ["miningmadness.com"]
//	logging:
//	  level: debug
//	  format: text
//	contentTypeOverrides:
//	  application/merchant+json: text
//	  application/x-thrift+json: application/json
//
// Missing fields take the values from Default. MockServerConfig is treated as
// immutable once a provider has been created from it.
package config
