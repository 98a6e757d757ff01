package config

// Schema is the JSON schema for validating configuration files
const Schema = `{
    "$schema": "http://json-schema.org/draft-07/schema#",
    "type": "object",
    "properties": {
        "log_level": {
            "type": "string",
            "enum": ["debug", "info", "warn", "error"]
        },
        "log_format": {
            "type": "string",
            "enum": ["json", "console"]
        },
        "env_prefix": {
            "type": "string",
            "pattern": "^[A-Z0-9_]*$"
        },
        "env_file": {
            "type": "string"
        },
        "settings_dsn": {
            "type": "string"
        },
        "settings_table": {
            "type": "string",
            "pattern": "^[a-zA-Z_][a-zA-Z0-9_]*$"
        },
        "settings": {
            "type": "object",
            "properties": {
                "uploads_storage": {
                    "type": ["string", "integer"]
                },
                "use_path_style_endpoint": {
                    "type": ["boolean", "string", "integer"]
                },
                "verify_cert": {
                    "type": ["boolean", "string", "integer"]
                },
                "sftp_port": {
                    "type": ["integer", "string"]
                }
            },
            "additionalProperties": {
                "type": ["string", "boolean", "number"]
            }
        }
    },
    "additionalProperties": false
}`
