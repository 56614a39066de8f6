// Watchpost - Activity Classification for Security Cameras
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/watchpost

/*
Package config provides centralized configuration management for Watchpost.

Configuration is loaded with Koanf v2 from three layers, later layers winning:

 1. Built-in defaults (defaultConfig)
 2. An optional YAML file: $CONFIG_PATH, ./config.yaml or /etc/watchpost/config.yaml
 3. Environment variables, mapped explicitly by envTransformFunc

Unknown environment variables are ignored so the process environment cannot
pollute the configuration tree.

# Configuration Structure

  - ServerConfig: HTTP listener and shutdown timeout
  - EngineConfig: throttle interval, log capacity and detector thresholds
  - NotificationsConfig: webhook and Discord delivery, cooldown, minimum severity
  - StoreConfig: Badger detection archive
  - EventBusConfig: Watermill backend (gochannel or NATS) and topics
  - SecurityConfig: rate limiting and CORS
  - LoggingConfig: zerolog level and format

# Example

	engine:
	  update_interval: 3s
	  thresholds:
	    fighting_velocity: 40
	notifications:
	  min_severity: medium
	  discord:
	    enabled: true
	    webhook_url: https://discord.com/api/webhooks/...
*/
package config
