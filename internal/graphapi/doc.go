// Package graphapi implements the REST client for the directory and mail
// administration gateway. It exposes typed operations over distribution
// groups, mail contacts, and recipients, authenticates through Azure AD
// client credentials, and reports failures as typed errors.
package graphapi
