package workspace

type exampleFile struct {
	path    string
	content string
}

// exampleFiles is the sample model written by `c4 init --example`. It loads
// and resolves cleanly against DefaultInclude.
var exampleFiles = []exampleFile{
	{"shared/personas.yaml", `# User types that interact with your systems
persons:
  - id: user
    name: User
    description: A generic user of the system
    tags:
      - external
`},
	{"shared/external-systems.yaml", `# External systems your architecture depends on
systems:
  - id: email-service
    name: Email Service
    description: Third-party email delivery service
    external: true
`},
	{"systems/example/system.yaml", `systems:
  - id: example
    name: Example System
    description: An example system to get you started
    external: false
    tags:
      - example
`},
	{"systems/example/containers.yaml", `# systemId is inferred from the directory name
containers:
  - id: web-app
    name: Web Application
    description: The main web interface
    technology: React, TypeScript

  - id: api
    name: API Server
    description: Backend REST API
    technology: Go, Chi

  - id: database
    name: Database
    description: Primary data store
    technology: PostgreSQL 15
`},
	{"systems/example/relationships.yaml", `relationships:
  - from: user
    to: example.web-app
    description: Uses the web interface

  - from: example.web-app
    to: example.api
    description: Makes API calls
    technology: HTTPS, JSON

  - from: example.api
    to: example.database
    description: Reads and writes data
    technology: SQL

  - from: example.api
    to: email-service
    description: Sends notification emails
    technology: SMTP
`},
	{"systems/example/flows/signup.yaml", `flows:
  - id: signup
    name: User Signup
    description: A new user creates an account
    steps:
      - seq: 1
        from: user
        to: example.web-app
        description: Fills in the signup form
      - seq: 2
        from: example.web-app
        to: example.api
        description: POST /users
        technology: HTTPS
      - seq: 3
        from: example.api
        to: example.database
        description: Inserts the user record
      - seq: 4
        from: example.api
        to: email-service
        description: Sends the welcome email
`},
	{"deployments/production.yaml", `deployments:
  - id: production
    name: Production
    description: Production deployment environment
    nodes:
      - id: cloud
        name: Cloud Provider
        technology: AWS
        children:
          - id: web-tier
            name: Web Tier
            instances:
              - container: example.web-app
                replicas: 2
          - id: api-tier
            name: API Tier
            instances:
              - container: example.api
                replicas: 3
          - id: data-tier
            name: Data Tier
            instances:
              - container: example.database
                replicas: 1
`},
}
