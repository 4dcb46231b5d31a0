// Package config loads engine settings with viper.
//
// Recognized keys: table (or legacy collection), schema, connection.{discovery_key,host,port,uri,database}
// or a connections list of the same shape, credential.{store_key,username,password} and
// options.{max_pool_size,keep_alive,connect_timeout,auto_reconnect,max_page_size,debug}.
// Every key can be overridden through the environment with the PERSISTENCE_ prefix.
package config
