package mcpserver

// QueryGuide explains how query_knowledge interprets free-text questions.
const QueryGuide = `# Ansuz Query Guide

query_knowledge matches keywords in the question, ignoring case. Every group
whose keywords appear is answered in the order below; the last matching group
decides the returned data and message, while related resources from all
matching groups are collected.

| Order | Keywords | Answer |
|-------|----------|--------|
| 1 | repo, repository, github | the example repository link |
| 2 | deploy, url, environment | deployment URLs of the example repository |
| 3 | api, endpoint | every known API endpoint |
| 4 | config, setting, environment | every configuration entry |
| 5 | module, code, implementation | modules matching the remaining words, or all modules |

A question that matches no group succeeds with empty data.

## Examples

- "which repo is this" -> repository link
- "production url" -> deployment URLs
- "module github" -> the GitHub Integration module

For a specific repository use get_repository, get_deployment_url or
get_build_status instead.
`
